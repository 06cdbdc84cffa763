package svgscene

import (
	"sort"
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// simpleSelector is one of *, tag, .class, #id or tag.class
type simpleSelector struct {
	tag, class, id string
}

func (s simpleSelector) specificity() int {
	out := 0
	if s.id != "" {
		out += 100
	}
	if s.class != "" {
		out += 10
	}
	if s.tag != "" {
		out += 1
	}
	return out
}

// cssRule is one rule of a style sheet, with only one selector
type cssRule struct {
	selector simpleSelector
	decls    []declaration
}

func (r cssRule) matches(el *element) bool {
	s := r.selector
	if s.tag != "" && s.tag != el.name.Local {
		return false
	}
	if s.id != "" && s.id != el.id() {
		return false
	}
	if s.class != "" {
		classes, _ := el.attr("class")
		for _, class := range strings.Fields(classes) {
			if class == s.class {
				return true
			}
		}
		return false
	}
	return true
}

// parseSelector returns false for unsupported selectors,
// such as combinators or pseudo classes
func parseSelector(v string) (simpleSelector, bool) {
	var out simpleSelector
	if v == "*" {
		return out, true
	}
	if strings.ContainsAny(v, " >+~:[*") || v == "" {
		return out, false
	}
	if id, ok := strings.CutPrefix(v, "#"); ok {
		out.id = id
		return out, !strings.ContainsAny(id, ".#")
	}
	tag, class, hasClass := strings.Cut(v, ".")
	out.tag, out.class = tag, class
	if hasClass && (class == "" || strings.ContainsAny(class, ".#")) {
		return out, false
	}
	return out, !strings.Contains(tag, "#")
}

// declarationValue joins the value tokens of a declaration,
// without a trailing !important.
func declarationValue(tokens []css.Token) string {
	if n := len(tokens); n >= 2 && tokens[n-1].TokenType == css.IdentToken &&
		strings.EqualFold(string(tokens[n-1].Data), "important") &&
		tokens[n-2].TokenType == css.DelimToken && string(tokens[n-2].Data) == "!" {
		tokens = tokens[:n-2]
	}
	var b strings.Builder
	for _, tok := range tokens {
		b.Write(tok.Data)
	}
	return strings.TrimSpace(b.String())
}

// parseDeclarations reads the content of a style attribute.
// Invalid declarations are skipped.
func parseDeclarations(style string) []declaration {
	var out []declaration
	p := css.NewParser(parse.NewInputString(style), true)
	for {
		gt, _, data := p.Next()
		switch gt {
		case css.ErrorGrammar:
			if !p.HasParseError() { // end of input
				return out
			}
		case css.DeclarationGrammar:
			out = append(out, declaration{key: string(data), value: declarationValue(p.Values())})
		}
	}
}

// splitSelectors returns the comma separated selectors of a ruleset prelude
func splitSelectors(tokens []css.Token) []string {
	var (
		out []string
		b   strings.Builder
	)
	for _, tok := range tokens {
		if tok.TokenType == css.CommaToken {
			out = append(out, strings.TrimSpace(b.String()))
			b.Reset()
			continue
		}
		b.Write(tok.Data)
	}
	return append(out, strings.TrimSpace(b.String()))
}

// parseStyleSheet reads the rules of a CSS style sheet, sorted
// by specificity, then by document order.
// Unsupported selectors and syntax errors are reported with handleError.
// At-rules (and the rules they contain) are ignored.
func (c *cursor) parseStyleSheet(sheet string) ([]cssRule, error) {
	var (
		rules     []cssRule
		selectors []simpleSelector // of the current ruleset
		decls     []declaration
		atDepth   int
	)
	p := css.NewParser(parse.NewInputString(sheet), false)
	for done := false; !done; {
		gt, _, data := p.Next()
		switch gt {
		case css.ErrorGrammar:
			if !p.HasParseError() { // end of input
				done = true
				break
			}
			if err := c.handleError("invalid style sheet: %s", p.Err()); err != nil {
				return nil, err
			}
		case css.BeginAtRuleGrammar:
			atDepth++
		case css.EndAtRuleGrammar:
			atDepth--
		case css.BeginRulesetGrammar:
			if atDepth > 0 {
				continue
			}
			selectors, decls = selectors[:0], nil
			for _, sel := range splitSelectors(p.Values()) {
				selector, ok := parseSelector(sel)
				if !ok {
					if err := c.handleError("unsupported CSS selector %q", sel); err != nil {
						return nil, err
					}
					continue
				}
				selectors = append(selectors, selector)
			}
		case css.DeclarationGrammar:
			if atDepth > 0 {
				continue
			}
			decls = append(decls, declaration{key: string(data), value: declarationValue(p.Values())})
		case css.EndRulesetGrammar:
			if atDepth > 0 {
				continue
			}
			for _, selector := range selectors {
				rules = append(rules, cssRule{selector: selector, decls: decls})
			}
			selectors, decls = selectors[:0], nil
		}
	}
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].selector.specificity() < rules[j].selector.specificity()
	})
	return rules, nil
}

// readStyleSheets collects the CSS rules of all the style elements
func (c *cursor) readStyleSheets(root *element) error {
	var css strings.Builder
	var visit func(el *element)
	visit = func(el *element) {
		for _, child := range el.children {
			if child.isForeign() {
				continue
			}
			if child.name.Local == "style" {
				if typ, ok := child.attr("type"); !ok || typ == "" || typ == "text/css" {
					css.WriteString(child.text)
					css.WriteByte('\n')
				}
				continue
			}
			visit(child)
		}
	}
	visit(root)
	rules, err := c.parseStyleSheet(css.String())
	if err != nil {
		return err
	}
	c.rules = rules
	return nil
}
