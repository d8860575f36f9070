//go:build property

package tilde

import (
	"fmt"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestTemplateProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(1357)
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	// Property: every distinct variable in the source is reported once
	properties.Property("distinct variables are counted once", prop.ForAll(
		func(names []string, repeat int) bool {
			var sb strings.Builder
			seen := map[string]bool{}
			for i := 0; i < repeat; i++ {
				for _, n := range names {
					sb.WriteString("x ~%" + n + "% ")
					seen[n] = true
				}
			}
			tmpl, err := NewCache(CacheDisabled).FromString(sb.String())
			if err != nil {
				return false
			}
			return len(tmpl.Variables()) == len(seen) && CountVariables(tmpl) == len(seen)
		},
		gen.SliceOfN(8, gen.Identifier()),
		gen.IntRange(1, 3),
	))

	// Property: nested templates appear in the hierarchy in source order
	properties.Property("nested template order is preserved", prop.ForAll(
		func(count int) bool {
			var sb strings.Builder
			want := []string{}
			for i := 0; i < count; i++ {
				name := fmt.Sprintf("t%d", i)
				sb.WriteString("~%%begin:" + name + "%~%v%~%%end:" + name + "%")
				want = append(want, name)
			}
			tmpl, err := NewCache(CacheDisabled).FromString(sb.String())
			if err != nil {
				return false
			}
			got := tmpl.NestedTemplateNames()
			if len(got) != len(want) {
				return false
			}
			for i := range want {
				if got[i] != want[i] {
					return false
				}
			}
			return CountVariables(tmpl) == count
		},
		gen.IntRange(0, 12),
	))

	// Property: text without tags renders unchanged
	properties.Property("plain text renders verbatim", prop.ForAll(
		func(text string) bool {
			if strings.Contains(text, "~%") || strings.Contains(text, "<!--") {
				return true
			}
			tmpl, err := NewCache(CacheDisabled).FromString(text)
			if err != nil {
				return false
			}
			out, err := tmpl.NewRenderSession().RenderString()
			return err == nil && out == text
		},
		gen.AlphaString(),
	))

	// Property: html escaping never leaves markup characters behind
	properties.Property("html group output has no raw markup", prop.ForAll(
		func(value string) bool {
			tmpl, err := NewCache(CacheDisabled).FromString("~%html:v%")
			if err != nil {
				return false
			}
			s := tmpl.NewRenderSession()
			if err := s.Set("v", value); err != nil {
				return false
			}
			out, err := s.RenderString()
			return err == nil && !strings.ContainsAny(out, `<>"'`)
		},
		gen.AnyString(),
	))

	// Property: the repetition count fixes the number of rendered instances
	properties.Property("populate renders one instance per item", prop.ForAll(
		func(items []int) bool {
			tmpl, err := NewCache(CacheDisabled).FromString("~%%begin:r%[~%v%]~%%end:r%")
			if err != nil {
				return false
			}
			rows := make([]map[string]any, len(items))
			for i, v := range items {
				rows[i] = map[string]any{"v": v}
			}
			s := tmpl.NewRenderSession()
			if err := s.Populate("r", rows, NoGroup); err != nil {
				return false
			}
			out, err := s.RenderString()
			return err == nil && strings.Count(out, "[") == len(items)
		},
		gen.SliceOf(gen.Int()),
	))

	properties.TestingRun(t)
}
