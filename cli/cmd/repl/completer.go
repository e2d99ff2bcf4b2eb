package repl

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/AlseFum/Texus/lang"
)

// ctrlCommands are the available control-mode commands.
var ctrlCommands = []string{
	"help", "list", "vars", "seed", "reload", "edit", "clear", "quit",
}

// isNameRune reports whether r can appear in an item or variable name.
func isNameRune(r rune) bool {
	return r == '_' ||
		('a' <= r && r <= 'z') ||
		('A' <= r && r <= 'Z') ||
		('0' <= r && r <= '9')
}

// wordBounds returns the name at the cursor position and its byte
// boundaries within input. The word is empty when the cursor is not
// touching a name.
func wordBounds(input string, cursor int) (word string, start, end int) {
	cursor = min(max(cursor, 0), len(input))

	start = cursor

	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if !isNameRune(r) {
			break
		}

		start -= size
	}

	end = cursor

	for end < len(input) {
		r, size := utf8.DecodeRuneInString(input[end:])
		if !isNameRune(r) {
			break
		}

		end += size
	}

	return input[start:end], start, end
}

// sigil returns the byte that introduces the word starting at wordStart:
// '#' for an item reference, '$' for a variable, or 0.
func sigil(input string, wordStart int) byte {
	if wordStart == 0 {
		return 0
	}

	switch c := input[wordStart-1]; c {
	case '#', '$':
		return c
	}

	return 0
}

// candidates returns the names that complete the word starting at
// wordStart. Items follow '#' or start the input, since an item name alone
// generates that item; variables follow '$'.
func candidates(ast *lang.AST, input string, wordStart int) []string {
	if ast == nil {
		return nil
	}

	switch sigil(input, wordStart) {
	case '#':
		return ast.Items.Names()

	case '$':
		names := make([]string, len(ast.Variables))
		for i, decl := range ast.Variables {
			names[i] = decl.Name
		}

		return names
	}

	if strings.TrimSpace(input[:wordStart]) == "" {
		return ast.Items.Names()
	}

	return nil
}

// computeMatches calculates the fuzzy match results for the word at the
// cursor, ranked best-first, along with the word boundaries. An empty word
// lists every candidate after a sigil and nothing otherwise.
func (m model) computeMatches() (
	matches fuzzy.Matches,
	names []string,
	wordStart, wordEnd int,
) {
	input := m.input.Value()

	word, wordStart, wordEnd := wordBounds(input, m.input.Position())

	if m.mode == modeCtrl {
		if word == "" || wordStart > 0 {
			return nil, nil, wordStart, wordEnd
		}

		names = ctrlCommands
	} else {
		names = candidates(m.ast, input, wordStart)

		if word == "" {
			if sigil(input, wordStart) == 0 || len(names) == 0 {
				return nil, nil, wordStart, wordEnd
			}

			matches = make(fuzzy.Matches, len(names))
			for i, c := range names {
				matches[i] = fuzzy.Match{Str: c, Index: i}
			}

			return matches, names, wordStart, wordEnd
		}
	}

	if len(names) == 0 {
		return nil, nil, wordStart, wordEnd
	}

	return fuzzy.Find(word, names), names, wordStart, wordEnd
}

// renderCandidateBar builds the single-line completion bar, ellipsized to fit
// within the given terminal width. Each candidate is rendered with its matched
// characters highlighted. The selected candidate (when tabbing) uses the
// selected style.
func renderCandidateBar(
	matches fuzzy.Matches,
	suggIdx int,
	tabActive bool,
	width int,
) string {
	if len(matches) == 0 || width <= 0 {
		return ""
	}

	const sep = "  "

	sepWidth := lipgloss.Width(sep)
	ellipsis := hintStyle.Render("...")
	ellipsisWidth := lipgloss.Width(ellipsis)

	var b strings.Builder

	used := 0

	for i, match := range matches {
		rendered := renderCandidate(match, tabActive && i == suggIdx)

		entryWidth := lipgloss.Width(rendered)
		if i > 0 {
			entryWidth += sepWidth
		}

		if used+entryWidth+ellipsisWidth > width && i > 0 {
			b.WriteString(sep)
			b.WriteString(ellipsis)

			break
		}

		if i > 0 {
			b.WriteString(sep)
		}

		b.WriteString(rendered)

		used += entryWidth
	}

	return b.String()
}

// renderCandidate renders a single candidate with matched characters
// highlighted.
func renderCandidate(match fuzzy.Match, selected bool) string {
	baseStyle := suggestionStyle
	highlightStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("4")).
		Bold(true)

	if selected {
		baseStyle = selectedStyle
		highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4")).
			Bold(true)
	}

	matchSet := make(map[int]bool, len(match.MatchedIndexes))
	for _, idx := range match.MatchedIndexes {
		matchSet[idx] = true
	}

	var b strings.Builder

	for i, r := range match.Str {
		if matchSet[i] {
			b.WriteString(highlightStyle.Render(string(r)))
		} else {
			b.WriteString(baseStyle.Render(string(r)))
		}
	}

	return b.String()
}

// itemPreview summarizes an item for the list command: its option count
// and first option.
func itemPreview(item *lang.Item) string {
	if item.Body == nil || len(item.Body.Choices) == 0 {
		return "(no options)"
	}

	first := item.Body.Choices[0].String()
	if utf8.RuneCountInString(first) > 40 {
		first = string([]rune(first)[:37]) + "..."
	}

	n := len(item.Body.Choices)
	if n == 1 {
		return "1 option: " + first
	}

	return fmt.Sprintf("%d options: %s | ...", n, first)
}
