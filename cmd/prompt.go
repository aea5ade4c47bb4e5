package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/maxvaer/credfuzz/internal/config"
)

// promptOptions asks for the input mode and file paths when credfuzz is
// started on a terminal without any of them.
func promptOptions(in io.Reader, out io.Writer, opts *config.Options) error {
	r := bufio.NewReader(in)
	ask := func(question, def string) (string, error) {
		if def != "" {
			fmt.Fprintf(out, "%s [%s]: ", question, def)
		} else {
			fmt.Fprintf(out, "%s: ", question)
		}
		line, err := r.ReadString('\n')
		line = strings.TrimSpace(line)
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			if def != "" && errors.Is(err, io.EOF) {
				return def, nil
			}
			return "", fmt.Errorf("reading answer: %w", err)
		}
		if line == "" {
			if def == "" {
				return "", fmt.Errorf("%s: an answer is required", strings.ToLower(question))
			}
			return def, nil
		}
		return line, nil
	}

	fmt.Fprintln(out, "Select mode:")
	fmt.Fprintln(out, "  1) import a curl command and generate a request template")
	fmt.Fprintln(out, "  2) use an existing request template")
	mode, err := ask("Mode", "2")
	if err != nil {
		return err
	}

	switch mode {
	case "1":
		if opts.CurlFile, err = ask("curl command file", ""); err != nil {
			return err
		}
		if opts.RequestFile, err = ask("Write request template to", opts.RequestFile); err != nil {
			return err
		}
		stop, err := ask("Stop after writing it so you can edit it? (y/n)", "n")
		if err != nil {
			return err
		}
		opts.GenerateOnly = strings.HasPrefix(strings.ToLower(stop), "y")
		if opts.GenerateOnly {
			return nil
		}
	case "2":
		if opts.RequestFile, err = ask("Request template", opts.RequestFile); err != nil {
			return err
		}
	default:
		return fmt.Errorf("invalid mode %q: choose 1 or 2", mode)
	}

	opts.WordlistPath, err = ask("Wordlist", "")
	return err
}
