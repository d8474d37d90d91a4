package classify

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// looksStructural reports whether a message is structurally non-conversational
// content such as code, logs, config, shell transcripts, or encoded data.
// The checks are language-agnostic and tuned for a low false positive rate;
// a false negative just falls through to semantic classification.
func looksStructural(message string) bool {
	msgLen := utf8.RuneCountInString(message)
	if msgLen == 0 {
		return false
	}

	// Link dumps and technical references.
	urlCount := strings.Count(message, "http://") + strings.Count(message, "https://")
	if urlCount >= 5 {
		return true
	}

	// Long unbroken alphanumeric runs: tokens, hashes, base64.
	for _, word := range strings.Fields(message) {
		cleaned := strings.Trim(word, `.,;:!?()[]{}"'`)
		if utf8.RuneCountInString(cleaned) > 80 && isAlnumIdent(cleaned) {
			return true
		}
	}

	// Repeated markdown separators.
	for _, sep := range []string{"---", "===", "___", "***"} {
		if strings.Count(message, sep) >= 2 {
			return true
		}
	}

	if shellTranscript(message) {
		return true
	}

	// Path and URL punctuation density.
	if msgLen > 30 {
		pathChars := strings.Count(message, "/") + strings.Count(message, `\`) + strings.Count(message, ".")
		if pathChars > 10 && float64(pathChars)/float64(msgLen) > 0.15 {
			return true
		}
	}

	// Bracket density: JSON, XML, templates.
	markup := 0
	for _, c := range "{}[]<>" {
		markup += strings.Count(message, string(c))
	}
	if markup >= 6 {
		if float64(markup)/float64(msgLen) > 0.10 {
			return true
		}
		if strings.Count(message, "{")+strings.Count(message, "}") >= 10 {
			return true
		}
	}

	lineBreaks := strings.Count(message, "\n")

	// Indented key:value blocks (YAML, config dumps).
	if lineBreaks >= 8 {
		nonEmpty := nonEmptyLines(message)
		if len(nonEmpty) > 0 {
			colonLines, indentedLines := 0, 0
			for _, line := range nonEmpty {
				if strings.Contains(line, ":") && !strings.HasPrefix(strings.TrimSpace(line), "#") {
					colonLines++
				}
				if strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t") {
					indentedLines++
				}
			}
			n := float64(len(nonEmpty))
			if float64(colonLines)/n > 0.4 && float64(indentedLines)/n > 0.5 {
				wordsOutsideKV := 0
				for _, line := range nonEmpty {
					if !strings.Contains(line, ":") {
						wordsOutsideKV += len(strings.Fields(line))
					}
				}
				if wordsOutsideKV < 5 {
					return true
				}
			}
		}
	}

	// Long structured content: markup share or indentation plus operators.
	if lineBreaks > 15 {
		nonEmpty := nonEmptyLines(message)
		if len(nonEmpty) > 0 {
			markupLines, indented := 0, 0
			for _, line := range nonEmpty {
				if strings.ContainsAny(line, "{}[]<>") {
					markupLines++
				}
				if strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t") {
					indented++
				}
			}
			n := float64(len(nonEmpty))
			if float64(markupLines)/n > 0.3 {
				return true
			}
			if float64(indented)/n > 0.6 {
				operators := 0
				for _, op := range "=+-*/<>&|!:?" {
					operators += strings.Count(message, string(op))
				}
				if float64(operators)/float64(msgLen) > 0.05 {
					return true
				}
			}
		}
	}

	// Code-style indentation with code line endings.
	if lineBreaks >= 3 {
		nonEmpty := nonEmptyLines(message)
		if len(nonEmpty) > 0 {
			indented, codeEndings := 0, 0
			for _, line := range nonEmpty {
				if line[0] == ' ' || line[0] == '\t' {
					indented++
				}
				trimmed := strings.TrimSpace(line)
				if trimmed != "" && strings.ContainsAny(trimmed[len(trimmed)-1:], "{}();") {
					codeEndings++
				}
			}
			n := float64(len(nonEmpty))
			if float64(indented)/n > 0.5 && float64(codeEndings)/n > 0.2 {
				return true
			}
		}
	}

	// Encoded data and raw technical output.
	if msgLen > 50 {
		special, alnum := 0, 0
		for _, c := range message {
			switch {
			case isAlnumRune(c):
				alnum++
			case c != ' ' && c != '\t' && c != '\n' && c != '\r':
				special++
			}
		}
		if float64(special)/float64(msgLen) > 0.35 && float64(alnum)/float64(msgLen) < 0.50 {
			return true
		}
	}

	return false
}

// shellTranscript detects pasted terminal sessions: prompt-prefixed command
// lines, optionally combined with URLs or pipes.
func shellTranscript(message string) bool {
	commandLines := 0
	for _, raw := range strings.Split(message, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "$ ") && len(line) > 2:
			parts := strings.Fields(line[2:])
			if len(parts) > 0 && isAlnumIdent(parts[0]) {
				commandLines++
			}
		case strings.Contains(line, "$ "):
			idx := strings.Index(line, "$ ")
			if idx > 0 && strings.ContainsAny(line[idx-1:idx], " :\t") {
				parts := strings.Fields(line[idx+2:])
				if len(parts) > 0 && (isAlnumIdent(parts[0]) || isKnownCommand(parts[0])) {
					commandLines++
				}
			}
		case strings.HasPrefix(line, "# ") && len(line) > 2:
			// Root prompts, not markdown headings: lowercase start with args.
			rest := strings.TrimSpace(line[2:])
			if rest != "" && !isUpperStart(rest) && strings.Contains(rest, " ") {
				commandLines++
			}
		}
	}
	if commandLines >= 1 {
		if strings.Contains(message, "http://") || strings.Contains(message, "https://") || strings.Contains(message, " | ") {
			return true
		}
	}
	return commandLines >= 3
}

func isKnownCommand(s string) bool {
	switch s {
	case "curl", "wget", "git", "npm", "pip", "docker":
		return true
	}
	return false
}

func isAlnumIdent(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c == '-' || c == '_' {
			continue
		}
		if !isAlnumRune(c) {
			return false
		}
	}
	return true
}

func isAlnumRune(c rune) bool {
	return unicode.IsLetter(c) || unicode.IsDigit(c)
}

func isUpperStart(s string) bool {
	c := s[0]
	return c >= 'A' && c <= 'Z'
}

func nonEmptyLines(message string) []string {
	var out []string
	for _, line := range strings.Split(message, "\n") {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}
