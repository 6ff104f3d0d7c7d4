package stub

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/buildmart/haggle/internal/domain"
)

// material is one catalog entry the stub negotiates over.
type material struct {
	name    string
	unit    string
	aliases []string
	list    int // opening quote per unit
	floor   int // lowest acceptable counter per unit
	stock   int
}

// catalog is the stub's inventory. Prices are per unit.
var catalog = []material{
	{
		name:    "ACC cement",
		unit:    "bag",
		aliases: []string{"acc cement", "acc"},
		list:    350,
		floor:   320,
		stock:   2000,
	},
	{
		name:    "UltraTech cement",
		unit:    "bag",
		aliases: []string{"ultratech cement", "ultratech", "ultra tech"},
		list:    340,
		floor:   310,
		stock:   1500,
	},
	{
		name:    "Fe500 steel",
		unit:    "ton",
		aliases: []string{"fe500 steel", "fe500", "steel", "tmt"},
		list:    52000,
		floor:   48000,
		stock:   80,
	},
	{
		name:    "red clay bricks",
		unit:    "pallet",
		aliases: []string{"red clay bricks", "bricks", "brick"},
		list:    5500,
		floor:   5100,
		stock:   300,
	},
}

// conversation is one session's negotiation state.
type conversation struct {
	turns []domain.Turn
	ended bool

	item     *material
	quantity int
	asking   int  // current per-unit quote, 0 until quoted
	haggled  bool // a counter at the floor has already been given
}

func newConversation() *conversation {
	return &conversation{turns: []domain.Turn{}}
}

// numberRe matches a standalone integer. Boundaries keep digits embedded in
// grade names like "Fe500" from matching.
var numberRe = regexp.MustCompile(`\b(\d+)\b`)

var rejectWords = []string{"no deal", "reject", "forget it", "cancel", "not interested"}

// Checked after rejectWords: "no deal" must not read as an acceptance.
var acceptWords = []string{"accept", "deal", "agreed", "take it", "sounds good", "done"}

// negotiate appends the user turn and the scripted reply to the conversation,
// possibly marking it ended. The script is deterministic: the same message
// sequence always produces the same transcript.
func negotiate(conv *conversation, message string) {
	conv.turns = append(conv.turns, domain.UserTurn(message))
	conv.turns = append(conv.turns, domain.AssistantTurn(conv.reply(message)))
}

func (conv *conversation) reply(message string) string {
	lower := normalize(message)

	if conv.asking > 0 {
		if containsAny(lower, rejectWords) {
			conv.ended = true
			return "Understood, no deal then. Thanks for considering BuildMart."
		}
		if containsAny(lower, acceptWords) {
			conv.ended = true
			return fmt.Sprintf("Deal! %d %s of %s at %d per %s. Our dispatch team will call you about delivery.",
				conv.quantity, pluralUnit(conv.item.unit), conv.item.name, conv.asking, conv.item.unit)
		}
	}

	// A named material starts (or replaces) the inquiry
	if item := matchMaterial(lower); item != nil {
		conv.item = item
		conv.quantity = 0
		conv.asking = 0
		conv.haggled = false

		qty, ok := parseNumber(lower)
		if !ok {
			return fmt.Sprintf("How many %s of %s do you need?", pluralUnit(item.unit), item.name)
		}
		return conv.quote(qty)
	}

	num, ok := parseNumber(lower)
	if !ok {
		return "We stock ACC cement, UltraTech cement, Fe500 steel, and red clay bricks. What do you need?"
	}

	// No quote yet: the number is a quantity for the pending material
	if conv.item != nil && conv.asking == 0 {
		return conv.quote(num)
	}
	if conv.item == nil {
		return fmt.Sprintf("%d of what? We stock ACC cement, UltraTech cement, Fe500 steel, and red clay bricks.", num)
	}

	// Quoted: the number is a counter-offer per unit
	return conv.counter(num)
}

// quote sets the quantity and opens at the list price, clamping to stock.
func (conv *conversation) quote(qty int) string {
	if qty <= 0 {
		return fmt.Sprintf("How many %s of %s do you need?", pluralUnit(conv.item.unit), conv.item.name)
	}

	if qty > conv.item.stock {
		conv.quantity = conv.item.stock
		conv.asking = conv.item.list
		return fmt.Sprintf("I can only supply %d %s of %s right now. For %d %s my rate is %d per %s.",
			conv.item.stock, pluralUnit(conv.item.unit), conv.item.name,
			conv.quantity, pluralUnit(conv.item.unit), conv.asking, conv.item.unit)
	}

	conv.quantity = qty
	conv.asking = conv.item.list
	return fmt.Sprintf("For %d %s of %s my rate is %d per %s.",
		conv.quantity, pluralUnit(conv.item.unit), conv.item.name, conv.asking, conv.item.unit)
}

// counter handles a per-unit counter-offer against the current quote.
func (conv *conversation) counter(offer int) string {
	if offer >= conv.asking {
		conv.ended = true
		return fmt.Sprintf("Deal! %d %s of %s at %d per %s. Our dispatch team will call you about delivery.",
			conv.quantity, pluralUnit(conv.item.unit), conv.item.name, conv.asking, conv.item.unit)
	}
	if offer >= conv.item.floor {
		conv.asking = offer
		conv.ended = true
		return fmt.Sprintf("Deal! %d %s of %s at %d per %s. Our dispatch team will call you about delivery.",
			conv.quantity, pluralUnit(conv.item.unit), conv.item.name, conv.asking, conv.item.unit)
	}

	conv.asking = conv.item.floor
	if conv.haggled {
		return fmt.Sprintf("%d per %s is my final rate. Take it or leave it.", conv.asking, conv.item.unit)
	}
	conv.haggled = true
	return fmt.Sprintf("I can't go that low. Best I can do is %d per %s for %d %s.",
		conv.asking, conv.item.unit, conv.quantity, pluralUnit(conv.item.unit))
}

// normalize lowercases the message and collapses it to space-separated
// alphanumeric words, padded with spaces, so phrase matching can require word
// boundaries ("acc" must not match inside "accept").
func normalize(message string) string {
	words := strings.FieldsFunc(strings.ToLower(message), func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	})
	return " " + strings.Join(words, " ") + " "
}

// matchMaterial returns the catalog entry whose longest alias appears in the
// normalized message, or nil. Longest-alias wins so "ultratech cement" does
// not resolve to a shorter alias of another entry.
func matchMaterial(lower string) *material {
	var best *material
	bestLen := 0
	for i := range catalog {
		for _, alias := range catalog[i].aliases {
			if strings.Contains(lower, " "+alias+" ") && len(alias) > bestLen {
				best = &catalog[i]
				bestLen = len(alias)
			}
		}
	}
	return best
}

func parseNumber(lower string) (int, bool) {
	m := numberRe.FindString(lower)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return n, true
}

func containsAny(lower string, words []string) bool {
	for _, w := range words {
		if strings.Contains(lower, " "+w+" ") {
			return true
		}
	}
	return false
}

func pluralUnit(unit string) string {
	return unit + "s"
}
