package quiz

import (
	"encoding/json"
	"strings"

	"github.com/mind-engage/videoquiz/internal/jsonx"
)

// Item types as authored. Matching is case-insensitive.
const (
	TypeMCQ      = "mcq"
	TypeCheckbox = "checkbox"
	TypeFIB      = "fib"
	TypePause    = "pause"
	TypePoll     = "poll"
	TypeFR       = "fr"
)

// DefaultMaxLen applies to free-response items without maxLen.
const DefaultMaxLen = 500

// FreeResponseTypes are the spellings of a free-response item.
var FreeResponseTypes = []string{"fr", "free", "free_response"}

// IsFreeResponse reports whether typ names a free-response item.
func IsFreeResponse(typ string) bool {
	typ = strings.ToLower(typ)
	for _, t := range FreeResponseTypes {
		if typ == t {
			return true
		}
	}
	return false
}

type Choice struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type Item struct {
	ID      string   `json:"id"`
	Type    string   `json:"type"`
	Prompt  string   `json:"prompt,omitempty"`
	Choices []Choice `json:"choices,omitempty"`
	MaxLen  int      `json:"maxLen,omitempty"`
}

// Quiz is the part of a quiz document the attempt views read. The document
// itself is served verbatim.
type Quiz struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Category string `json:"category,omitempty"`
	Group    string `json:"group,omitempty"`
	Items    []Item `json:"items"`
}

func (q *Quiz) UnmarshalJSON(b []byte) error {
	var raw struct {
		ID       json.RawMessage `json:"id"`
		Title    json.RawMessage `json:"title"`
		Category json.RawMessage `json:"category"`
		Group    json.RawMessage `json:"group"`
		Items    []Item          `json:"items"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	q.ID, _ = jsonx.String(raw.ID)
	q.Title, _ = jsonx.String(raw.Title)
	q.Category, _ = jsonx.String(raw.Category)
	q.Group, _ = jsonx.String(raw.Group)
	q.Items = raw.Items
	return nil
}

// Summary is one entry of the quiz listing.
type Summary struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Category *string `json:"category"`
	Group    *string `json:"group"`
}

// Authors write ids as strings or numbers; both read as strings.
func (c *Choice) UnmarshalJSON(b []byte) error {
	var raw struct {
		ID   json.RawMessage `json:"id"`
		Text json.RawMessage `json:"text"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	c.ID, _ = jsonx.String(raw.ID)
	var ok bool
	if c.Text, ok = jsonx.String(raw.Text); !ok {
		c.Text = c.ID
	}
	return nil
}

func (it *Item) UnmarshalJSON(b []byte) error {
	var raw struct {
		ID      json.RawMessage `json:"id"`
		Type    json.RawMessage `json:"type"`
		Prompt  json.RawMessage `json:"prompt"`
		Choices []Choice        `json:"choices"`
		MaxLen  json.RawMessage `json:"maxLen"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	it.ID, _ = jsonx.String(raw.ID)
	it.Type, _ = jsonx.String(raw.Type)
	it.Prompt, _ = jsonx.String(raw.Prompt)
	it.Choices = raw.Choices
	it.MaxLen, _ = jsonx.Int(raw.MaxLen)
	return nil
}

// ItemsByType keeps items whose type matches one of types, ignoring case,
// in authoring order.
func ItemsByType(q Quiz, types ...string) []Item {
	want := make(map[string]bool, len(types))
	for _, t := range types {
		want[strings.ToLower(t)] = true
	}
	var out []Item
	for _, it := range q.Items {
		if want[strings.ToLower(it.Type)] {
			out = append(out, it)
		}
	}
	return out
}

// Item looks up an item by id.
func (q Quiz) Item(id string) (Item, bool) {
	for _, it := range q.Items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}
