// Package normalize turns raw tabular records into canonical Line sequences.
//
// Authors omit repeated fields in the source sheets, so normalization
// forward-fills scene ids, orders, and presentation fields. The background
// carry deliberately survives scene changes: that matches the shipped
// content's observed behavior, and "fixing" it would change how authored
// lessons render.
package normalize

import (
	"strconv"
	"strings"

	"github.com/lessonloop/scenario-backend/internal/types"
)

// fieldAliases maps squashed source column names to canonical field names.
// Lookup happens after lowercasing and stripping underscores, so "Next_ID",
// "next_id" and "nextid" all land on "next".
var fieldAliases = map[string]string{
	"id":      "order",
	"nextid":  "next",
	"emotion": "expression",
	"image":   "studyimage",
}

// CanonicalKey normalizes a source column name: case-insensitive,
// underscore-insensitive, alias-resolved.
func CanonicalKey(k string) string {
	k = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(k)), "_", "")
	if alias, ok := fieldAliases[k]; ok {
		return alias
	}
	return k
}

// carry is the forward-fill accumulator threaded through the fold. The
// per-scene fields reset when a row names a new scene; background does not.
type carry struct {
	scene      string
	background string
	se         string
	effect     string
	voice      string
	graph      string
	studyImage string
}

// Normalize converts raw rows into canonical lines. It is total: every input
// row yields exactly one Line, malformed quiz fields included, left for the
// playback layer to handle defensively.
func Normalize(rows []types.RawRow) []types.Line {
	lines := make([]types.Line, 0, len(rows))
	var c carry
	for _, raw := range rows {
		r := canonicalize(raw)

		scene := r["scene"]
		if scene == "" {
			scene = c.scene
		} else if scene != c.scene {
			c.scene = scene
			c.se, c.effect, c.voice, c.graph, c.studyImage = "", "", "", "", ""
		}

		l := types.Line{
			Scene:      scene,
			Speaker:    r["speaker"],
			Text:       r["text"],
			Expression: r["expression"],
			Background: fill(r["background"], &c.background),
			SE:         fill(r["se"], &c.se),
			Effect:     fill(r["effect"], &c.effect),
			Voice:      fill(r["voice"], &c.voice),
			Graph:      fill(r["graph"], &c.graph),
			StudyImage: fill(r["studyimage"], &c.studyImage),
			Intent:     r["intent"],
			Option1:    r["option1"],
			Option2:    r["option2"],
			Option3:    r["option3"],
			Answer:     r["answer"],
			WinText:    r["wintext"],
			LoseText:   r["losetext"],
			Next:       r["next"],
		}
		if l.Expression == "" {
			l.Expression = types.DefaultExpression
		}
		l.Order = nextOrder(r["order"], scene, lines)

		lines = append(lines, l)
	}
	return lines
}

// fill returns the row's value when present, otherwise the carried value,
// updating the carry either way a non-empty value is seen.
func fill(v string, carried *string) string {
	if v == "" {
		return *carried
	}
	*carried = v
	return v
}

// nextOrder resolves a row's order: the parsed source value when numeric,
// otherwise previous-in-scene + 1, otherwise 1 for a fresh scene. A
// corrupted previous order falls back to the emitted count.
func nextOrder(raw, scene string, emitted []types.Line) int {
	if n, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
		return n
	}
	if len(emitted) > 0 {
		prev := emitted[len(emitted)-1]
		if prev.Scene == scene {
			if prev.Order < 1 {
				return len(emitted) + 1
			}
			return prev.Order + 1
		}
	}
	return 1
}

// canonicalize rewrites a raw row's keys through CanonicalKey. When two
// source columns collide on the same canonical key, a non-empty value wins.
func canonicalize(raw types.RawRow) types.RawRow {
	out := make(types.RawRow, len(raw))
	for k, v := range raw {
		ck := CanonicalKey(k)
		if existing, ok := out[ck]; ok && existing != "" && v == "" {
			continue
		}
		out[ck] = v
	}
	return out
}
