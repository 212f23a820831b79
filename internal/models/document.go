package models

import (
	"bytes"
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joescharf/mossy/internal/calendar"
	"github.com/joescharf/mossy/internal/weekday"
)

// Document is a stored catalog: top-level keys to raw JSON values. Writes merge
// at the top level, so a partial Document only replaces the keys it carries.
type Document map[string]json.RawMessage

// Canonical document keys.
const (
	KeyBaseActivities   = "baseActivities"
	KeySleep            = "sleep"
	KeyWeeklyActivities = "weeklyActivities"
	KeyDaySpecific      = "daySpecific"
	KeyMalus            = "malus"
)

// Older snapshots stored the same data under these names.
var keyAliases = map[string][]string{
	KeyWeeklyActivities: {"dailyActivities"},
	KeyDaySpecific:      {"dailySpecific"},
	KeyMalus:            {"malusList"},
}

// canonicalKey maps each alias back to its canonical key.
var canonicalKey = func() map[string]string {
	m := map[string]string{}
	for canon, aliases := range keyAliases {
		for _, a := range aliases {
			m[a] = canon
		}
	}
	return m
}()

// createdAt layouts accepted besides RFC 3339.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseDocument decodes raw JSON into a Document. Anything that is not a JSON
// object yields an empty Document.
func ParseDocument(data []byte) Document {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil || doc == nil {
		return Document{}
	}
	return doc
}

// DecodeCatalog reads a stored catalog document. It never fails: malformed parts
// degrade to defaults and unreadable list entries become holes.
func DecodeCatalog(data []byte) Catalog {
	return ParseDocument(data).Catalog()
}

func (d Document) lookup(key string) json.RawMessage {
	if v, ok := d[key]; ok && !isNull(v) {
		return v
	}
	for _, alias := range keyAliases[key] {
		if v, ok := d[alias]; ok && !isNull(v) {
			return v
		}
	}
	return nil
}

// Catalog converts the document to canonical form.
func (d Document) Catalog() Catalog {
	var c Catalog

	for _, raw := range rawList(d.lookup(KeyBaseActivities)) {
		c.BaseActivities = append(c.BaseActivities, flexString(raw))
	}

	if raw := d.lookup(KeySleep); raw != nil {
		var s struct {
			Bedtime  json.RawMessage `json:"bedtime"`
			Wakeup   json.RawMessage `json:"wakeup"`
			WakeTime json.RawMessage `json:"wakeTime"`
		}
		if json.Unmarshal(raw, &s) == nil && isObject(raw) {
			wake := flexString(s.Wakeup)
			if wake == "" {
				wake = flexString(s.WakeTime)
			}
			c.Sleep = &Sleep{Bedtime: flexString(s.Bedtime), Wakeup: wake}
		}
	}

	for _, raw := range rawList(d.lookup(KeyWeeklyActivities)) {
		c.WeeklyActivities = append(c.WeeklyActivities, decodeWeekly(raw))
	}

	if raw := d.lookup(KeyDaySpecific); raw != nil {
		var days map[string]json.RawMessage
		if json.Unmarshal(raw, &days) == nil && len(days) > 0 {
			c.DaySpecific = make(map[string][]*AdHocTask, len(days))
			for key, list := range days {
				var tasks []*AdHocTask
				for _, item := range rawList(list) {
					tasks = append(tasks, decodeAdHoc(item))
				}
				c.DaySpecific[key] = tasks
			}
		}
	}

	for _, raw := range rawList(d.lookup(KeyMalus)) {
		c.Malus = append(c.Malus, decodeMalus(raw))
	}

	return c
}

func decodeWeekly(raw json.RawMessage) *WeeklyActivity {
	if !isObject(raw) {
		return nil
	}
	var r struct {
		Name             json.RawMessage   `json:"name"`
		Weekday          json.RawMessage   `json:"weekday"`
		Days             []json.RawMessage `json:"days"`
		PartOfDay        json.RawMessage   `json:"partOfDay"`
		Repeat           json.RawMessage   `json:"repeat"`
		RepeatEveryWeeks json.RawMessage   `json:"repeatEveryWeeks"`
		Offset           json.RawMessage   `json:"offset"`
		WeekOffset       json.RawMessage   `json:"weekOffset"`
		CreatedAt        json.RawMessage   `json:"createdAt"`
	}
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil
	}

	w := &WeeklyActivity{
		Name:      flexString(r.Name),
		PartOfDay: weekday.ParsePartOfDay(flexString(r.PartOfDay)),
		CreatedAt: flexTime(r.CreatedAt),
	}

	// A weekday string wins over the legacy days array, as it always has.
	if isString(r.Weekday) {
		if wd, ok := weekday.Parse(flexString(r.Weekday)); ok {
			w.Weekdays = []time.Weekday{wd}
		}
	} else {
		for _, item := range r.Days {
			if wd, ok := weekday.Parse(flexString(item)); ok {
				w.Weekdays = append(w.Weekdays, wd)
			}
		}
	}

	repeat, ok := flexInt(r.RepeatEveryWeeks)
	if !ok {
		repeat, ok = flexInt(r.Repeat)
	}
	if !ok || repeat < 1 {
		repeat = 1
	}
	offset, ok := flexInt(r.WeekOffset)
	if !ok {
		offset, ok = flexInt(r.Offset)
	}
	if !ok || offset < 0 {
		offset = 0
	}
	w.RepeatEveryWeeks = repeat
	w.WeekOffset = offset
	return w
}

func decodeAdHoc(raw json.RawMessage) *AdHocTask {
	if !isObject(raw) {
		return nil
	}
	var r struct {
		Name      json.RawMessage `json:"name"`
		PartOfDay json.RawMessage `json:"partOfDay"`
	}
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil
	}
	return &AdHocTask{
		Name:      flexString(r.Name),
		PartOfDay: weekday.ParsePartOfDay(flexString(r.PartOfDay)),
	}
}

// decodeMalus accepts the legacy bare-string form, which always meant a
// weekdays-only malus.
func decodeMalus(raw json.RawMessage) Malus {
	if isString(raw) {
		return Malus{Name: flexString(raw), WeekdaysOnly: true}
	}
	var r struct {
		Name         json.RawMessage `json:"name"`
		WeekdaysOnly json.RawMessage `json:"weekdaysOnly"`
	}
	if !isObject(raw) || json.Unmarshal(raw, &r) != nil {
		return Malus{}
	}
	return Malus{Name: flexString(r.Name), WeekdaysOnly: flexBool(r.WeekdaysOnly)}
}

// --- canonical encoding ---

type weeklyDoc struct {
	Name             string   `json:"name"`
	Weekday          string   `json:"weekday,omitempty"`
	Days             []string `json:"days,omitempty"`
	PartOfDay        string   `json:"partOfDay"`
	RepeatEveryWeeks int      `json:"repeatEveryWeeks"`
	WeekOffset       int      `json:"weekOffset"`
	CreatedAt        string   `json:"createdAt,omitempty"`
}

// Document encodes the catalog with canonical keys. Every key is present so a
// full save also clears sections that were removed (sleep is written as null).
func (c Catalog) Document() (Document, error) {
	doc := Document{}

	base := c.BaseActivities
	if base == nil {
		base = []string{}
	}
	if err := doc.set(KeyBaseActivities, base); err != nil {
		return nil, err
	}
	if err := doc.set(KeySleep, c.Sleep); err != nil {
		return nil, err
	}

	weekly := make([]*weeklyDoc, len(c.WeeklyActivities))
	for i, w := range c.WeeklyActivities {
		if w == nil {
			continue
		}
		wd := &weeklyDoc{
			Name:             w.Name,
			PartOfDay:        string(w.PartOfDay),
			RepeatEveryWeeks: max(1, w.RepeatEveryWeeks),
			WeekOffset:       max(0, w.WeekOffset),
		}
		switch len(w.Weekdays) {
		case 0:
		case 1:
			wd.Weekday = weekday.ShortName(w.Weekdays[0])
		default:
			for _, d := range w.Weekdays {
				wd.Days = append(wd.Days, weekday.ShortName(d))
			}
		}
		if !w.CreatedAt.IsZero() {
			wd.CreatedAt = w.CreatedAt.UTC().Format(time.RFC3339)
		}
		weekly[i] = wd
	}
	if err := doc.set(KeyWeeklyActivities, weekly); err != nil {
		return nil, err
	}

	adhoc := c.DaySpecific
	if adhoc == nil {
		adhoc = map[string][]*AdHocTask{}
	}
	if err := doc.set(KeyDaySpecific, adhoc); err != nil {
		return nil, err
	}

	malus := c.Malus
	if malus == nil {
		malus = []Malus{}
	}
	if err := doc.set(KeyMalus, malus); err != nil {
		return nil, err
	}
	return doc, nil
}

func (d Document) set(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	d[key] = raw
	return nil
}

// Merge applies patch onto d at the top level. A patched key replaces its
// aliases as well, in both directions, and a null value removes them all. When
// the patch carries both a legacy key and its canonical key, the canonical one
// wins.
func (d Document) Merge(patch Document) Document {
	out := Document{}
	for k, v := range d {
		out[k] = v
	}
	apply := func(k string, v json.RawMessage) {
		for _, alias := range keyAliases[k] {
			delete(out, alias)
		}
		if canon, ok := canonicalKey[k]; ok {
			delete(out, canon)
		}
		if isNull(v) {
			delete(out, k)
			return
		}
		out[k] = v
	}
	for k, v := range patch {
		if _, legacy := canonicalKey[k]; legacy {
			apply(k, v)
		}
	}
	for k, v := range patch {
		if _, legacy := canonicalKey[k]; !legacy {
			apply(k, v)
		}
	}
	return out
}

// Keys returns the document keys sorted.
func (d Document) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// --- tolerant scalar readers ---

func isNull(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

func isObject(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) > 0 && t[0] == '{'
}

func isString(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) > 0 && t[0] == '"'
}

func rawList(raw json.RawMessage) []json.RawMessage {
	var list []json.RawMessage
	if raw == nil || json.Unmarshal(raw, &list) != nil {
		return nil
	}
	return list
}

func flexString(raw json.RawMessage) string {
	if isNull(raw) {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var n json.Number
	if json.Unmarshal(raw, &n) == nil {
		return n.String()
	}
	return ""
}

func flexInt(raw json.RawMessage) (int, bool) {
	if isNull(raw) {
		return 0, false
	}
	var f float64
	if json.Unmarshal(raw, &f) == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return int(f), true
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		s = strings.TrimSpace(s)
		if n, err := strconv.Atoi(s); err == nil {
			return n, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return int(f), true
		}
	}
	return 0, false
}

func flexBool(raw json.RawMessage) bool {
	if isNull(raw) {
		return false
	}
	var b bool
	if json.Unmarshal(raw, &b) == nil {
		return b
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		v, err := strconv.ParseBool(strings.TrimSpace(s))
		return err == nil && v
	}
	var f float64
	if json.Unmarshal(raw, &f) == nil {
		return f != 0
	}
	return false
}

// flexTime reads createdAt as a date string, epoch milliseconds, or a
// {seconds, nanoseconds} timestamp object. Unreadable values are treated as absent.
func flexTime(raw json.RawMessage) time.Time {
	if isNull(raw) {
		return time.Time{}
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return parseDate(strings.TrimSpace(s))
	}
	var ms float64
	if json.Unmarshal(raw, &ms) == nil {
		if ms <= 0 || math.IsNaN(ms) || math.IsInf(ms, 0) {
			return time.Time{}
		}
		return time.UnixMilli(int64(ms)).UTC()
	}
	var ts struct {
		Seconds     *int64 `json:"seconds"`
		Nanoseconds int64  `json:"nanoseconds"`
	}
	if json.Unmarshal(raw, &ts) == nil && ts.Seconds != nil {
		return time.Unix(*ts.Seconds, ts.Nanoseconds).UTC()
	}
	return time.Time{}
}

func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		// Strings without an offset are civil times in the home zone.
		if t, err := time.ParseInLocation(layout, s, calendar.HomeZone()); err == nil {
			return t
		}
	}
	return time.Time{}
}
