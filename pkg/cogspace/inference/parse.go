package inference

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/cognicore/cogspace/pkg/cogspace/atomspace"
	"github.com/cognicore/cogspace/pkg/cogspace/internalerr"
)

// ParseSchema parses the schema notation:
//
//	InheritanceLink($A, Animal)
//	EvaluationLink(#3, $x)
//	ConceptNode:Dog
//	PredicateNode:$p
//
// Terms starting with '$' are variables, '#n' is an atom ID, a double-quoted
// string is a literal name that may contain commas or parentheses, and any
// other token is a literal name.
func ParseSchema(text string) (Schema, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Schema{}, fmt.Errorf("%w: empty schema", internalerr.ErrInvalidInput)
	}

	head, args, hasArgs := text, "", false
	if open := indexUnquoted(text, '('); open != -1 {
		if !strings.HasSuffix(text, ")") {
			return Schema{}, fmt.Errorf("%w: missing ')': %s", internalerr.ErrInvalidInput, text)
		}
		head, args, hasArgs = text[:open], text[open+1:len(text)-1], true
	} else if indexUnquoted(text, ')') != -1 {
		return Schema{}, fmt.Errorf("%w: missing '(': %s", internalerr.ErrInvalidInput, text)
	}

	typ, name, _ := strings.Cut(strings.TrimSpace(head), ":")
	typ, name = strings.TrimSpace(typ), strings.TrimSpace(name)
	if typ == "" || strings.ContainsAny(typ, " \t$#\"") {
		return Schema{}, fmt.Errorf("%w: invalid atom type %q", internalerr.ErrInvalidInput, typ)
	}
	if unq, err := strconv.Unquote(name); err == nil {
		name = unq
	}
	sc := Schema{Type: typ, Name: name}

	if !hasArgs || strings.TrimSpace(args) == "" {
		return sc, nil
	}
	parts, err := splitArgs(args)
	if err != nil {
		return Schema{}, fmt.Errorf("%w: %s: %v", internalerr.ErrInvalidInput, text, err)
	}
	for _, part := range parts {
		term, err := parseTerm(part)
		if err != nil {
			return Schema{}, fmt.Errorf("%w: %s: %v", internalerr.ErrInvalidInput, text, err)
		}
		sc.Outgoing = append(sc.Outgoing, term)
	}
	return sc, nil
}

// MustSchema is ParseSchema for literals in code; it panics on error.
func MustSchema(text string) Schema {
	sc, err := ParseSchema(text)
	if err != nil {
		panic(err)
	}
	return sc
}

// splitArgs splits on commas outside double quotes.
func splitArgs(args string) ([]string, error) {
	var parts []string
	var cur strings.Builder
	inQuote := false
	for i := 0; i < len(args); i++ {
		c := args[i]
		switch {
		case c == '\\' && inQuote && i+1 < len(args):
			cur.WriteByte(c)
			i++
			cur.WriteByte(args[i])
			continue
		case c == '"':
			inQuote = !inQuote
		case c == ',' && !inQuote:
			parts = append(parts, strings.TrimSpace(cur.String()))
			cur.Reset()
			continue
		}
		cur.WriteByte(c)
	}
	if inQuote {
		return nil, fmt.Errorf("unterminated quote")
	}
	parts = append(parts, strings.TrimSpace(cur.String()))
	return parts, nil
}

func parseTerm(s string) (Term, error) {
	switch {
	case s == "":
		return Term{}, fmt.Errorf("empty term")
	case strings.HasPrefix(s, "\""):
		name, err := strconv.Unquote(s)
		if err != nil {
			return Term{}, fmt.Errorf("bad quoted name %s", s)
		}
		return N(name), nil
	case strings.HasPrefix(s, "$"):
		if len(s) == 1 {
			return Term{}, fmt.Errorf("empty variable name")
		}
		return V(s), nil
	case strings.HasPrefix(s, "#"):
		n, err := strconv.ParseInt(s[1:], 10, 64)
		if err != nil || n <= 0 {
			return Term{}, fmt.Errorf("bad atom id %s", s)
		}
		return Ref(atomspace.ID(n)), nil
	default:
		return N(s), nil
	}
}

// ParseRule parses one rule line:
//
//	name [confidence]: Premise & Premise => Conclusion
//
// Confidence defaults to 1.
func ParseRule(line string) (Rule, error) {
	header, body, ok := strings.Cut(line, ":")
	if !ok {
		return Rule{}, fmt.Errorf("%w: missing ':' after rule name: %s", internalerr.ErrInvalidRule, line)
	}
	fields := strings.Fields(header)
	if len(fields) == 0 || len(fields) > 2 {
		return Rule{}, fmt.Errorf("%w: expected 'name [confidence]', got %q", internalerr.ErrInvalidRule, header)
	}
	rule := Rule{Name: fields[0], Confidence: 1.0}
	if len(fields) == 2 {
		c, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return Rule{}, fmt.Errorf("%w: bad confidence %q", internalerr.ErrInvalidRule, fields[1])
		}
		rule.Confidence = c
	}

	sides := splitUnquoted(body, "=>")
	if len(sides) != 2 {
		return Rule{}, fmt.Errorf("%w: expected exactly one '=>': %s", internalerr.ErrInvalidRule, line)
	}
	lhs, rhs := sides[0], sides[1]
	conclusion, err := ParseSchema(rhs)
	if err != nil {
		return Rule{}, fmt.Errorf("%w: conclusion: %v", internalerr.ErrInvalidRule, err)
	}
	rule.Conclusion = conclusion

	if strings.TrimSpace(lhs) != "" {
		for _, part := range splitUnquoted(lhs, "&") {
			premise, err := ParseSchema(part)
			if err != nil {
				return Rule{}, fmt.Errorf("%w: premise: %v", internalerr.ErrInvalidRule, err)
			}
			rule.Premises = append(rule.Premises, premise)
		}
	}
	return rule, nil
}

// indexUnquoted returns the index of the first c outside double quotes, or -1.
func indexUnquoted(s string, c byte) int {
	inQuote := false
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '\\' && inQuote:
			i++
		case s[i] == '"':
			inQuote = !inQuote
		case !inQuote && s[i] == c:
			return i
		}
	}
	return -1
}

// splitUnquoted splits s around each sep that is outside double quotes.
func splitUnquoted(s, sep string) []string {
	var parts []string
	inQuote, start := false, 0
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '\\' && inQuote:
			i++
		case s[i] == '"':
			inQuote = !inQuote
		case !inQuote && strings.HasPrefix(s[i:], sep):
			parts = append(parts, s[start:i])
			i += len(sep) - 1
			start = i + 1
		}
	}
	return append(parts, s[start:])
}

// ParseRules reads a rule file, one rule per line. Blank lines and lines
// starting with '#' are skipped.
func ParseRules(text string) ([]Rule, error) {
	var rules []Rule
	scanner := bufio.NewScanner(strings.NewReader(text))
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rule, err := ParseRule(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		rules = append(rules, rule)
	}
	return rules, scanner.Err()
}
