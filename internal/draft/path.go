package draft

import (
	"fmt"
	"strings"

	"aetheria-site/internal/model"
)

// Path addresses one field of the content draft: a section, a field in it, and for
// item sequences (features.items, pricing.tiers, faq.items) an index and sub-field.
// Names match the stored JSON record.
type Path struct {
	Section  string `json:"section"`
	Field    string `json:"field"`
	Index    *int   `json:"index,omitempty"`
	SubField string `json:"subField,omitempty"`
}

func (p Path) String() string {
	if p.Index != nil {
		return fmt.Sprintf("%s.%s[%d].%s", p.Section, p.Field, *p.Index, p.SubField)
	}
	return p.Section + "." + p.Field
}

// At is a convenience for building indexed paths.
func At(section, field string, index int, subField string) Path {
	return Path{Section: section, Field: field, Index: &index, SubField: subField}
}

// PathError reports a field edit that could not be applied.
type PathError struct {
	Path   Path
	Reason string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("draft: cannot edit %s: %s", e.Path, e.Reason)
}

// applyEdit mutates c in place. The caller passes a copy.
func applyEdit(c *model.SiteContent, p Path, value any) error {
	fail := func(format string, args ...any) error {
		return &PathError{Path: p, Reason: fmt.Sprintf(format, args...)}
	}

	if p.Index != nil {
		if p.SubField == "" {
			return fail("indexed edit needs a sub-field")
		}
		return applyItemEdit(c, p, *p.Index, value, fail)
	}
	if p.SubField != "" {
		return fail("sub-field given without an index")
	}

	var target *string
	switch p.Section {
	case "hero":
		switch p.Field {
		case "title":
			target = &c.Hero.Title
		case "subtitle":
			target = &c.Hero.SubtitleHTML
		case "cta":
			target = &c.Hero.CTALabel
		}
	case "features":
		switch p.Field {
		case "title":
			target = &c.Features.Title
		case "subtitle":
			target = &c.Features.SubtitleHTML
		}
	case "products":
		switch p.Field {
		case "title":
			target = &c.Products.Title
		case "subtitle":
			target = &c.Products.SubtitleHTML
		}
	case "pricing":
		switch p.Field {
		case "title":
			target = &c.Pricing.Title
		case "subtitle":
			target = &c.Pricing.SubtitleHTML
		}
	case "faq":
		if p.Field == "title" {
			target = &c.FAQ.Title
		}
	case "cta":
		switch p.Field {
		case "title":
			target = &c.CTA.Title
		case "subtitle":
			target = &c.CTA.SubtitleHTML
		case "buttonText":
			target = &c.CTA.ButtonLabel
		}
	default:
		return fail("unknown section %q", p.Section)
	}
	if target == nil {
		return fail("unknown field %q", p.Field)
	}

	s, ok := value.(string)
	if !ok {
		return fail("expected a string, got %T", value)
	}
	*target = s
	return nil
}

func applyItemEdit(c *model.SiteContent, p Path, index int, value any, fail func(string, ...any) error) error {
	checkIndex := func(n int) error {
		if index < 0 || index >= n {
			return fail("index %d out of range [0,%d)", index, n)
		}
		return nil
	}

	switch {
	case p.Section == "features" && p.Field == "items":
		if err := checkIndex(len(c.Features.Items)); err != nil {
			return err
		}
		item := &c.Features.Items[index]
		var target *string
		switch p.SubField {
		case "icon":
			target = &item.Icon
		case "title":
			target = &item.Title
		case "description":
			target = &item.Description
		default:
			return fail("unknown feature field %q", p.SubField)
		}
		return setString(target, value, fail)

	case p.Section == "pricing" && p.Field == "tiers":
		if err := checkIndex(len(c.Pricing.Tiers)); err != nil {
			return err
		}
		tier := &c.Pricing.Tiers[index]
		switch p.SubField {
		case "name":
			return setString(&tier.Name, value, fail)
		case "price":
			return setString(&tier.Price, value, fail)
		case "isFeatured":
			b, ok := value.(bool)
			if !ok {
				return fail("expected a bool, got %T", value)
			}
			tier.IsFeatured = b
			return nil
		case "features":
			list, err := toStringList(value)
			if err != nil {
				return fail("%v", err)
			}
			tier.Features = list
			return nil
		default:
			return fail("unknown tier field %q", p.SubField)
		}

	case p.Section == "faq" && p.Field == "items":
		if err := checkIndex(len(c.FAQ.Items)); err != nil {
			return err
		}
		item := &c.FAQ.Items[index]
		switch p.SubField {
		case "question":
			return setString(&item.Question, value, fail)
		case "answer":
			return setString(&item.Answer, value, fail)
		default:
			return fail("unknown faq field %q", p.SubField)
		}
	}
	return fail("%s.%s is not an item sequence", p.Section, p.Field)
}

func setString(target *string, value any, fail func(string, ...any) error) error {
	s, ok := value.(string)
	if !ok {
		return fail("expected a string, got %T", value)
	}
	*target = s
	return nil
}

// toStringList accepts []string, a decoded JSON array, or the comma-separated text
// typed into the admin form ("a, b, c").
func toStringList(value any) ([]string, error) {
	switch v := value.(type) {
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out, nil
	case []any:
		out := make([]string, 0, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("element %d is %T, expected a string", i, item)
			}
			out = append(out, s)
		}
		return out, nil
	case string:
		parts := strings.Split(v, ",")
		out := make([]string, len(parts))
		for i, part := range parts {
			out[i] = strings.TrimSpace(part)
		}
		return out, nil
	}
	return nil, fmt.Errorf("expected a list of strings, got %T", value)
}
