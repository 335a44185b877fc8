// Command dialect rewrites standard Malayalam text into a regional dialect
// and prints the voice settings a synthesizer should use for it.
//
//	dialect -dialect malabar "നന്ദി"
//	echo "എന്ത്?" | dialect -dialect thrissur
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/fairgo/ai-ivr/pkg/dialect"
)

type output struct {
	Text        string              `json:"text"`
	Transformed string              `json:"transformed"`
	Dialect     dialect.Tag         `json:"dialect"`
	DisplayName string              `json:"display_name"`
	VoiceParams dialect.VoiceParams `json:"voice_params"`
}

func main() {
	name := flag.String("dialect", "standard", "standard, travancore, malabar, cochin or thrissur")
	asJSON := flag.Bool("json", false, "print one JSON object per line")
	list := flag.Bool("list", false, "list dialects and exit")
	flag.Parse()

	if *list {
		listDialects(os.Stdout)
		return
	}

	tag, err := dialect.ParseTag(*name)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if flag.NArg() > 0 {
		emit(os.Stdout, strings.Join(flag.Args(), " "), tag, *asJSON)
		return
	}

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			emit(os.Stdout, line, tag, *asJSON)
		}
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "read stdin: %v\n", err)
		os.Exit(1)
	}
}

func listDialects(w io.Writer) {
	for _, tag := range dialect.All() {
		p := dialect.VoiceParamsFor(tag)
		fmt.Fprintf(w, "%-11s rate=%.2f pitch=%+.1f  %s\n", tag, p.SpeakingRate, p.Pitch, dialect.DisplayName(tag))
	}
}

func emit(w io.Writer, text string, tag dialect.Tag, asJSON bool) {
	text = norm.NFC.String(text)
	out := output{
		Text:        text,
		Transformed: dialect.Transform(text, tag),
		Dialect:     tag,
		DisplayName: dialect.DisplayName(tag),
		VoiceParams: dialect.VoiceParamsFor(tag),
	}
	if asJSON {
		_ = json.NewEncoder(w).Encode(out)
		return
	}
	fmt.Fprintln(w, out.Transformed)
	fmt.Fprintf(w, "  %s  rate=%.2f pitch=%+.1f\n", out.DisplayName, out.VoiceParams.SpeakingRate, out.VoiceParams.Pitch)
}
