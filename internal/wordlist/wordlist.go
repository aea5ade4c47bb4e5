package wordlist

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrWordlistUnreadable is returned when the wordlist cannot be opened or read.
var ErrWordlistUnreadable = errors.New("wordlist unreadable")

// Source describes where candidates come from. Each Load re-reads the
// underlying file, so a Source can be replayed.
type Source struct {
	Path   string    // "-" reads Stdin
	Stdin  io.Reader // defaults to os.Stdin
	Dedupe bool      // drop repeated candidates, keeping the first
}

// Load reads path and returns its candidates in file order.
func Load(path string) ([]string, error) {
	return Source{Path: path}.Load()
}

// Load returns the trimmed, non-empty lines of the source. Duplicates are
// kept unless Dedupe is set.
func (s Source) Load() ([]string, error) {
	if s.Path == "" {
		return nil, fmt.Errorf("%w: no path given", ErrWordlistUnreadable)
	}

	var r io.Reader
	if s.Path == "-" {
		r = s.Stdin
		if r == nil {
			r = os.Stdin
		}
	} else {
		f, err := os.Open(s.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrWordlistUnreadable, err)
		}
		defer f.Close()
		r = f
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	var seen map[string]struct{}
	if s.Dedupe {
		seen = make(map[string]struct{})
	}
	var result []string
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if seen != nil {
			if _, ok := seen[line]; ok {
				continue
			}
			seen[line] = struct{}{}
		}
		result = append(result, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", ErrWordlistUnreadable, s.Path, err)
	}
	return result, nil
}
