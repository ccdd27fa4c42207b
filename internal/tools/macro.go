package tools

import (
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// macroPattern matches {{$name}} and {{$name(args)}} tokens.
var macroPattern = regexp.MustCompile(`\{\{\$([a-zA-Z_][a-zA-Z0-9_.]*)(?:\(([^)]*)\))?\}\}`)

const randomStringAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Expander substitutes dynamic macro tokens in canned tool responses.
// Counters persist across expansions for the lifetime of the expander.
type Expander struct {
	counters map[string]int
	now      func() time.Time
	rng      *rand.Rand
}

// NewExpander returns an expander with fresh counter state.
func NewExpander() *Expander {
	return &Expander{
		counters: make(map[string]int),
		now:      time.Now,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Expand replaces every recognized macro token in template. Tool call
// arguments back the param.* macros. Unknown macros are left verbatim.
func (e *Expander) Expand(template string, params map[string]any) string {
	return macroPattern.ReplaceAllStringFunc(template, func(token string) string {
		groups := macroPattern.FindStringSubmatch(token)
		name, args := groups[1], groups[2]

		switch {
		case name == "guid":
			return uuid.NewString()
		case name == "timestamp":
			return e.now().UTC().Format(time.RFC3339)
		case name == "int":
			return e.randomInt(args)
		case name == "counter":
			return e.nextCounter(args)
		case name == "random_string":
			return e.randomString(args)
		case name == "choice":
			return e.choose(args)
		case strings.HasPrefix(name, "param."):
			return paramValue(name[len("param."):], params)
		}
		return token
	})
}

func (e *Expander) randomInt(args string) string {
	min, max := 0, 1000000
	if args != "" {
		parts := strings.Split(args, ",")
		if len(parts) == 2 {
			lo, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
			hi, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
			if err1 == nil && err2 == nil && hi >= lo {
				min, max = lo, hi
			}
		}
	}
	return strconv.Itoa(min + e.rng.Intn(max-min+1))
}

func (e *Expander) nextCounter(name string) string {
	name = strings.TrimSpace(name)
	e.counters[name]++
	return strconv.Itoa(e.counters[name])
}

func (e *Expander) randomString(args string) string {
	length := 8
	if args != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(args)); err == nil && n > 0 {
			length = n
		}
	}
	var sb strings.Builder
	for i := 0; i < length; i++ {
		sb.WriteByte(randomStringAlphabet[e.rng.Intn(len(randomStringAlphabet))])
	}
	return sb.String()
}

func (e *Expander) choose(args string) string {
	options := strings.Split(args, ",")
	if len(options) == 0 {
		return ""
	}
	return strings.TrimSpace(options[e.rng.Intn(len(options))])
}

func paramValue(key string, params map[string]any) string {
	if params == nil {
		return ""
	}
	val, ok := params[key]
	if !ok {
		return ""
	}
	switch v := val.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
