// Package transform provides ready-made example -> example transformations
// for text preparation, consumed through the datakit Transform contract.
//
// Every transform is pure: it works on the copy it receives
// and communicates only through its return value.
package transform

import (
	"strings"
	"unicode"

	"go.llib.dev/frameless/pkg/errorkit"

	"go.llib.dev/datakit"
)

// ErrFieldType is returned when a transform finds a field
// holding a value of an unexpected type.
const ErrFieldType errorkit.Error = "ErrFieldType"

// Column applies fn to the value of a single field, leaving the rest of the
// example untouched. Examples without the field pass through unchanged.
func Column(field string, fn func(any) any) datakit.Transform {
	return datakit.TransformFunc(func(e datakit.Example) (datakit.Example, error) {
		if v, ok := e[field]; ok {
			e[field] = fn(v)
		}
		return e, nil
	})
}

// CleanText normalises the text of the given fields:
// lower case, punctuation stripped, whitespace collapsed.
func CleanText(fields ...string) datakit.Transform {
	return datakit.TransformFunc(func(e datakit.Example) (datakit.Example, error) {
		for _, field := range fields {
			s, ok := stringField(e, field)
			if !ok {
				continue
			}
			e[field] = cleanText(s)
		}
		return e, nil
	})
}

func cleanText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Tokenize replaces the string value of field with its whitespace separated tokens.
func Tokenize(field string) datakit.Transform {
	return datakit.TransformFunc(func(e datakit.Example) (datakit.Example, error) {
		s, ok := stringField(e, field)
		if !ok {
			return e, nil
		}
		e[field] = strings.Fields(s)
		return e, nil
	})
}

// RemoveStopWords drops common English stop words (plus any extra given ones)
// from the token sequence of field. The field is expected to hold tokens,
// as produced by Tokenize.
func RemoveStopWords(field string, extra ...string) datakit.Transform {
	drop := make(map[string]struct{}, len(stopWords)+len(extra))
	for _, w := range stopWords {
		drop[w] = struct{}{}
	}
	for _, w := range extra {
		drop[strings.ToLower(w)] = struct{}{}
	}
	return onTokens(field, func(tokens []string) []string {
		kept := tokens[:0]
		for _, tok := range tokens {
			if _, skip := drop[strings.ToLower(tok)]; !skip {
				kept = append(kept, tok)
			}
		}
		return kept
	})
}

// Stem reduces every token of field to a crude stem
// by stripping common English suffixes.
func Stem(field string) datakit.Transform {
	return onTokens(field, func(tokens []string) []string {
		for i, tok := range tokens {
			tokens[i] = stem(tok)
		}
		return tokens
	})
}

func stem(w string) string {
	switch {
	case len(w) > 4 && strings.HasSuffix(w, "ies"):
		return w[:len(w)-3] + "y"
	case len(w) > 5 && strings.HasSuffix(w, "ing"):
		return w[:len(w)-3]
	case len(w) > 4 && strings.HasSuffix(w, "ed"):
		return w[:len(w)-2]
	case len(w) > 4 && strings.HasSuffix(w, "ly"):
		return w[:len(w)-2]
	case len(w) > 3 && strings.HasSuffix(w, "s") && !strings.HasSuffix(w, "ss"):
		return w[:len(w)-1]
	}
	return w
}

// Lemmatize reduces every token of field to a dictionary base form,
// resolving a small irregular-form table before the suffix rules.
// Unlike Stem, the result is meant to stay a real word.
func Lemmatize(field string) datakit.Transform {
	return onTokens(field, func(tokens []string) []string {
		for i, tok := range tokens {
			tokens[i] = lemma(tok)
		}
		return tokens
	})
}

func lemma(w string) string {
	if base, ok := irregularForms[strings.ToLower(w)]; ok {
		return base
	}
	switch {
	case len(w) > 4 && strings.HasSuffix(w, "ies"):
		return w[:len(w)-3] + "y"
	case len(w) > 4 && strings.HasSuffix(w, "ing"):
		return undouble(w[:len(w)-3])
	case len(w) > 3 && strings.HasSuffix(w, "ed"):
		return undouble(w[:len(w)-2])
	case len(w) > 3 && strings.HasSuffix(w, "es"):
		return w[:len(w)-2]
	case len(w) > 3 && strings.HasSuffix(w, "s") && !strings.HasSuffix(w, "ss"):
		return w[:len(w)-1]
	}
	return w
}

// undouble collapses the doubled final consonant
// that -ing/-ed attachment introduced (running -> run).
func undouble(w string) string {
	if len(w) > 2 && w[len(w)-1] == w[len(w)-2] && !isVowel(w[len(w)-1]) {
		return w[:len(w)-1]
	}
	return w
}

func isVowel(c byte) bool {
	switch c {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	}
	return false
}

// irregularForms maps the common English irregular inflections
// the suffix rules cannot reach to their base form.
var irregularForms = map[string]string{
	"am": "be", "are": "be", "is": "be", "was": "be", "were": "be", "been": "be",
	"has": "have", "had": "have",
	"did": "do", "done": "do",
	"went": "go", "gone": "go",
	"ran": "run", "said": "say", "made": "make", "took": "take", "saw": "see",
	"better": "good", "best": "good", "worse": "bad", "worst": "bad",
	"children": "child", "men": "man", "women": "woman",
	"feet": "foot", "teeth": "tooth", "mice": "mouse", "geese": "goose",
}

func onTokens(field string, fn func([]string) []string) datakit.Transform {
	return datakit.TransformFunc(func(e datakit.Example) (datakit.Example, error) {
		tokens, ok, err := tokenField(e, field)
		if err != nil {
			return nil, err
		}
		if !ok {
			return e, nil
		}
		e[field] = fn(tokens)
		return e, nil
	})
}

func stringField(e datakit.Example, field string) (string, bool) {
	s, ok := e[field].(string)
	return s, ok
}

// tokenField reads a token sequence, accepting the []any shape
// a JSON round-trip turns token slices into.
func tokenField(e datakit.Example, field string) ([]string, bool, error) {
	switch v := e[field].(type) {
	case nil:
		return nil, false, nil
	case []string:
		// copied so the token functions never mutate a slice shared with the input
		return append([]string(nil), v...), true, nil
	case []any:
		tokens := make([]string, 0, len(v))
		for _, t := range v {
			s, ok := t.(string)
			if !ok {
				return nil, false, ErrFieldType.F("transform: field %q holds a non-string token %T", field, t)
			}
			tokens = append(tokens, s)
		}
		return tokens, true, nil
	default:
		return nil, false, ErrFieldType.F("transform: field %q holds %T, want tokens", field, v)
	}
}

// stopWords is a minimal English stop word list,
// enough for token count reduction in examples and tests.
var stopWords = []string{
	"a", "an", "and", "are", "as", "at", "be", "but", "by", "for", "from",
	"has", "have", "he", "her", "his", "i", "in", "is", "it", "its", "of",
	"on", "or", "she", "that", "the", "their", "them", "they", "this", "to",
	"was", "were", "will", "with", "you", "your",
}
