// Package parse tokenizes command lines into argument vectors for the shell.
package parse

import "strings"

// Parse splits a command line into an argument vector. Arguments are
// separated by spaces; characters enclosed in single quotes form a single
// argument. A trailing & requests a background job and is removed from the
// vector. A blank line yields an empty vector.
func Parse(line string) (argv []string, background bool) {
	s := strings.TrimSuffix(line, "\n")

	i := 0
	for i < len(s) {
		for i < len(s) && s[i] == ' ' {
			i++
		}
		if i >= len(s) {
			break
		}

		var arg string

		if s[i] == '\'' {
			i++
			if end := strings.IndexByte(s[i:], '\''); end < 0 {
				arg, i = s[i:], len(s)
			} else {
				arg, i = s[i:i+end], i+end+1
			}
		} else {
			if end := strings.IndexByte(s[i:], ' '); end < 0 {
				arg, i = s[i:], len(s)
			} else {
				arg, i = s[i:i+end], i+end
			}
		}

		argv = append(argv, arg)
	}

	if n := len(argv); n > 0 && strings.HasPrefix(argv[n-1], "&") {
		background = true
		argv = argv[:n-1]
	}

	return argv, background
}
