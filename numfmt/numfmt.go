// Package numfmt compiles SpreadsheetML number-format codes (the strings
// recorded in xl/styles.xml's numFmts/cellXfs tables) and applies them to
// cell values. Compilation happens lazily and is cached per numFmtId, since
// the same format is typically reused by thousands of cells.
package numfmt

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/NikkyAmresh/excel-manager/internal/dateformat"
	"github.com/NikkyAmresh/excel-manager/styles"
)

// Type classifies a compiled format code.
type Type int

const (
	Percentage Type = iota
	DateTime
	Euro
	Fraction
	Number
	GeneralFormat
)

var (
	dateTimeCodeRe = regexp.MustCompile(`^(\[\$[^\]]*\])*[hmsdy]`)
	fractionCodeRe = regexp.MustCompile(`#?[^?]*\?+/\?+`)
	colorPrefixRe  = regexp.MustCompile(`^\[[A-Za-z][A-Za-z0-9]*\]`)
	thousandsRe    = regexp.MustCompile(`[0#],[0#]`)
	scaleCommaRe   = regexp.MustCompile(`[0#](,+)($|[^0-9#])`)
	numPlaceholder = regexp.MustCompile(`0+\.?0*`)
	currencyRe     = regexp.MustCompile(`\[\$([A-Za-z]*)[^\]]*\]`)

	dateTokenSet = "DdFjlmMnoStwWmYyz"
	timeTokenSet = "aABgGhHisuv"
)

// section is the compiled form of one semicolon-delimited part of a format
// code (positive, negative, or zero).
type section struct {
	kind Type

	// Percentage
	pctInteger bool

	// DateTime — pattern is the code after the date-token substitution
	// table (spec.md §4.4 "Date replacements") has been applied; it is
	// expressed in the same single-letter alphabet PHP's date() uses,
	// which is also what force_date_format/force_time_format strings are
	// written in (see renderDateToken).
	pattern string

	// Fraction
	fracHasIntPart bool

	// Number
	thousands   bool
	scale       float64
	width       int
	decimals    int
	placeholder string
	currency    string
	cleanCode   string
}

// compiled is the cached, per-numFmtId parsed form of a format code.
type compiled struct {
	code     string
	sections [3]*section // positive, negative, zero — aliased when a format has fewer than 3 sections
}

// Engine compiles and applies number formats for one workbook. It is not
// safe for concurrent use by multiple goroutines without external locking,
// matching the rest of the core's single-threaded-per-workbook contract.
type Engine struct {
	customFormats map[int]string // numFmtId -> code, from styles.xml's <numFmts>
	overrides     map[int]string // caller-supplied CustomizedFormats, takes precedence

	forceDateFormat     string
	forceTimeFormat     string
	forceDatetimeFormat string
	returnDateTimeObjs  bool

	decimalSep   string
	thousandSep  string
	currencyCode string

	mu    sync.Mutex
	cache map[int]*compiled
}

// NewEngine builds an Engine. customFormats is the id->code table parsed
// from styles.xml; the remaining arguments mirror excel.Config's number
// formatting options (see SPEC_FULL.md §6).
func NewEngine(customFormats map[int]string, overrides map[int]string, forceDate, forceTime, forceDatetime string, returnObjects bool, decimalSep, thousandSep, currencyCode string) *Engine {
	if decimalSep == "" {
		decimalSep = "."
	}
	if thousandSep == "" {
		thousandSep = ","
	}
	return &Engine{
		customFormats:       customFormats,
		overrides:           overrides,
		forceDateFormat:     forceDate,
		forceTimeFormat:     forceTime,
		forceDatetimeFormat: forceDatetime,
		returnDateTimeObjs:  returnObjects,
		decimalSep:          decimalSep,
		thousandSep:         thousandSep,
		currencyCode:        currencyCode,
		cache:               make(map[int]*compiled),
	}
}

// Format applies ref to raw, per spec.md §4.4's format(value, style_index).
// Non-numeric cells (numeric is false, e.g. shared strings and inline
// strings) pass through unchanged. Malformed numeric text also passes
// through unchanged rather than erroring, since a corrupt single cell
// should not abort the whole row iteration.
func (e *Engine) Format(raw string, numeric bool, ref styles.Ref) (any, error) {
	if !numeric {
		return raw, nil
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return raw, nil
	}
	switch ref.Kind {
	case styles.NoFormat:
		return raw, nil
	case styles.General:
		return e.General(value), nil
	case styles.NumFmt:
		c, err := e.compile(ref.NumFmtID)
		if err != nil {
			return nil, err
		}
		return e.render(value, c)
	default:
		return raw, nil
	}
}

// General renders value the way an unformatted ("General") cell displays:
// the shortest decimal representation that round-trips.
func (e *Engine) General(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// codeFor resolves the format code for numFmtId per spec.md §4.4's
// compilation order: (a) a caller-supplied CustomizedFormats override, but
// only for ids that already exist in the builtin table (per spec.md §6's
// Config table — an override for a non-builtin id is ignored here and
// falls through to (c)); else (b) the builtin table; else (c) the custom
// <numFmts> codes read from styles.xml.
func (e *Engine) codeFor(id int) (string, bool) {
	if builtin, isBuiltin := styles.BuiltInNumFmt[id]; isBuiltin {
		if c, ok := e.overrides[id]; ok {
			return c, true
		}
		return builtin, true
	}
	if c, ok := e.customFormats[id]; ok {
		return c, true
	}
	return "", false
}

func (e *Engine) compile(id int) (*compiled, error) {
	e.mu.Lock()
	if c, ok := e.cache[id]; ok {
		e.mu.Unlock()
		return c, nil
	}
	e.mu.Unlock()

	code, ok := e.codeFor(id)
	if !ok {
		code = "General"
	}

	parts := strings.Split(code, ";")
	c := &compiled{code: code}
	switch {
	case len(parts) >= 3:
		c.sections[0] = compileSection(parts[0])
		c.sections[1] = compileSection(parts[1])
		c.sections[2] = compileSection(parts[2])
	case len(parts) == 2:
		c.sections[0] = compileSection(parts[0])
		c.sections[1] = compileSection(parts[1])
		c.sections[2] = c.sections[0]
	default:
		c.sections[0] = compileSection(parts[0])
		c.sections[1] = c.sections[0]
		c.sections[2] = c.sections[0]
	}

	e.mu.Lock()
	e.cache[id] = c
	e.mu.Unlock()
	return c, nil
}

// compileSection classifies and compiles one semicolon-delimited part of a
// format code, per spec.md §4.4 "Classification".
func compileSection(code string) *section {
	code = colorPrefixRe.ReplaceAllString(code, "")

	switch {
	case code == "General":
		return &section{kind: GeneralFormat}
	case strings.HasSuffix(code, "%"):
		return &section{kind: Percentage, pctInteger: code == "0%"}
	case dateTimeCodeRe.MatchString(code):
		return compileDateTime(code)
	case code == "[$eUR ]#,##0.00_-":
		return &section{kind: Euro}
	case fractionCodeRe.MatchString(code):
		return compileFraction(code)
	default:
		return compileNumber(code)
	}
}

func compileDateTime(code string) *section {
	code = strings.TrimPrefix(code, colorPrefixRe.FindString(code))
	// Strip a leading [$...-...] locale/currency tag, if present.
	if code != "" && code[0] == '[' {
		if i := strings.IndexByte(code, ']'); i >= 0 {
			code = code[i+1:]
		}
	}
	code = strings.ToLower(code)

	replacer := strings.NewReplacer(
		`\`, "",
		"am/pm", "A",
		"yyyy", "Y",
		"yy", "y",
		"mmmmm", "M",
		"mmmm", "F",
		"mmm", "M",
		":mm", ":i",
		"mm", "m",
		"m", "n",
		"dddd", "l",
		"ddd", "D",
		"dd", "d",
		"d", "j",
		"ss", "s",
		".s", "",
	)
	pattern := replacer.Replace(code)

	if strings.Contains(pattern, "A") {
		pattern = strings.NewReplacer("hh", "h", "h", "G").Replace(pattern)
	} else {
		pattern = strings.NewReplacer("hh", "H", "h", "G").Replace(pattern)
	}

	return &section{
		kind:    DateTime,
		pattern: pattern,
	}
}

func compileFraction(code string) *section {
	return &section{
		kind:           Fraction,
		fracHasIntPart: strings.ContainsAny(code, "0#") || strings.HasPrefix(code, "? ?"),
	}
}

func compileNumber(code string) *section {
	clean := code
	clean = strings.ReplaceAll(clean, "_.", "")
	clean = strings.ReplaceAll(clean, `\`, "")
	clean = strings.ReplaceAll(clean, `"`, "")
	clean = strings.ReplaceAll(clean, "*", "")

	thousands := thousandsRe.MatchString(clean)
	for thousandsRe.MatchString(clean) {
		clean = thousandsRe.ReplaceAllStringFunc(clean, func(m string) string {
			return strings.ReplaceAll(m, ",", "")
		})
	}

	scale := 1.0
	if m := scaleCommaRe.FindStringSubmatchIndex(clean); m != nil {
		commaStart, commaEnd := m[2], m[3]
		commas := commaEnd - commaStart
		scale = math.Pow(1000, float64(commas))
		clean = clean[:commaStart] + clean[commaEnd:]
	}

	currency := ""
	if cm := currencyRe.FindStringSubmatch(clean); cm != nil {
		currency = cm[1]
		clean = currencyRe.ReplaceAllString(clean, "[$currency]")
	}

	width, decimals := 0, 0
	placeholder := ""
	if loc := numPlaceholder.FindStringIndex(clean); loc != nil {
		start, end := loc[0], loc[1]
		core := clean[start:end]
		dotParts := strings.SplitN(core, ".", 2)
		width = len(dotParts[0])
		if len(dotParts) == 2 {
			decimals = len(dotParts[1])
		}
		// A thousands-grouped render already produces every digit the
		// surrounding "#"/"0" placeholders would have: extend the
		// substitution span leftward over them so none are left behind
		// as stray literal characters (e.g. "#,##0.00" -> "0.00" core,
		// but the rendered number replaces the whole "###0.00" run).
		if thousands {
			for start > 0 && (clean[start-1] == '#' || clean[start-1] == '0') {
				start--
			}
		}
		placeholder = clean[start:end]
	}

	return &section{
		kind:        Number,
		thousands:   thousands,
		scale:       scale,
		width:       width,
		decimals:    decimals,
		placeholder: placeholder,
		currency:    currency,
		cleanCode:   clean,
	}
}

// pick returns the section applicable to value's sign, per spec.md §4.4:
// 2-section codes route negatives to [1] and everything else to [0];
// 3+-section codes additionally route an exact zero to [2].
func (c *compiled) pick(value float64) *section {
	switch {
	case value < 0:
		return c.sections[1]
	case value == 0 && c.sections[2] != c.sections[0]:
		return c.sections[2]
	default:
		return c.sections[0]
	}
}

func (e *Engine) render(value float64, c *compiled) (any, error) {
	s := c.pick(value)
	switch s.kind {
	case Percentage:
		return renderPercentage(value, s), nil
	case DateTime:
		return e.renderDateTime(value, s)
	case Euro:
		return fmt.Sprintf("EUR %.2f", value), nil
	case Fraction:
		return renderFraction(value, s), nil
	case Number:
		return e.renderNumber(value, s), nil
	case GeneralFormat:
		return e.General(value), nil
	default:
		return e.General(value), nil
	}
}

func renderPercentage(value float64, s *section) string {
	if s.pctInteger {
		return fmt.Sprintf("%.0f%%", math.Round(value*100))
	}
	return fmt.Sprintf("%.2f%%", value*100)
}

func (e *Engine) renderDateTime(value float64, s *section) (any, error) {
	t := serialToTime(value)
	if e.returnDateTimeObjs {
		return t, nil
	}

	hasDate := dateformat.HasAnyUnquoted(s.pattern, dateTokenSet)
	hasTime := dateformat.HasAnyUnquoted(s.pattern, timeTokenSet)

	enforced := ""
	switch {
	case hasDate && hasTime:
		enforced = e.forceDatetimeFormat
	case hasDate:
		enforced = e.forceDateFormat
	case hasTime:
		enforced = e.forceTimeFormat
	}
	if enforced != "" {
		return renderDateToken(t, enforced, true), nil
	}
	return renderDateToken(t, s.pattern, false), nil
}

// renderDateToken interprets pattern as a PHP date()-style single-letter
// token string, the alphabet spec.md §4.4's date-replacement table and the
// force_*_format configuration options share. In a compiled pattern, 'd'/'m'
// come from a doubled "dd"/"mm" in the original format code and are
// zero-padded, while 'j'/'n' come from a lone "d"/"m" and are not — see
// compileDateTime. A force_*_format string is never run through that
// doubled-letter substitution, so per spec.md §8 scenario 4 its 'd'/'m' mean
// the same thing a lone "d"/"m" would: unpadded, like 'j'/'n'.
func renderDateToken(t time.Time, pattern string, forced bool) string {
	var b strings.Builder
	for i := 0; i < len(pattern); i++ {
		switch pattern[i] {
		case 'Y':
			fmt.Fprintf(&b, "%04d", t.Year())
		case 'y':
			fmt.Fprintf(&b, "%02d", t.Year()%100)
		case 'F':
			b.WriteString(t.Month().String())
		case 'M':
			b.WriteString(t.Month().String()[:3])
		case 'n':
			fmt.Fprintf(&b, "%d", int(t.Month()))
		case 'm':
			if forced {
				fmt.Fprintf(&b, "%d", int(t.Month()))
			} else {
				fmt.Fprintf(&b, "%02d", int(t.Month()))
			}
		case 'l':
			b.WriteString(t.Weekday().String())
		case 'D':
			b.WriteString(t.Weekday().String()[:3])
		case 'j':
			fmt.Fprintf(&b, "%d", t.Day())
		case 'd':
			if forced {
				fmt.Fprintf(&b, "%d", t.Day())
			} else {
				fmt.Fprintf(&b, "%02d", t.Day())
			}
		case 'i':
			fmt.Fprintf(&b, "%02d", t.Minute())
		case 's':
			fmt.Fprintf(&b, "%02d", t.Second())
		case 'H':
			fmt.Fprintf(&b, "%02d", t.Hour())
		case 'G':
			fmt.Fprintf(&b, "%d", t.Hour())
		case 'g':
			fmt.Fprintf(&b, "%d", hour12(t))
		case 'h':
			fmt.Fprintf(&b, "%02d", hour12(t))
		case 'A':
			b.WriteString(ampm(t))
		case 'a':
			b.WriteString(strings.ToLower(ampm(t)))
		default:
			b.WriteByte(pattern[i])
		}
	}
	return b.String()
}

func hour12(t time.Time) int {
	h := t.Hour() % 12
	if h == 0 {
		h = 12
	}
	return h
}

func ampm(t time.Time) string {
	if t.Hour() < 12 {
		return "AM"
	}
	return "PM"
}

// renderFraction implements spec.md §4.4's fraction application: the decimal
// part is taken as its own digit string (its natural power-of-ten
// denominator), then reduced by gcd — e.g. 0.25 -> "25"/100 -> gcd 25 ->
// 1/4. This is not a best-denominator search against the code's "?" count;
// the code only decides whether the integer part is split out or folded in.
func renderFraction(value float64, s *section) string {
	neg := value < 0
	v := math.Abs(value)
	intPart := int64(math.Floor(v))
	frac := v - math.Floor(v)

	decStr := strconv.FormatFloat(frac, 'f', -1, 64)
	decStr = strings.TrimPrefix(decStr, "0.")
	decStr = strings.TrimRight(decStr, "0")

	if decStr == "" {
		out := strconv.FormatInt(intPart, 10)
		if neg {
			out = "-" + out
		}
		return out
	}

	num, _ := strconv.ParseInt(decStr, 10, 64)
	den := int64(math.Pow10(len(decStr)))
	if g := gcd(num, den); g > 1 {
		num /= g
		den /= g
	}

	var out string
	if s.fracHasIntPart {
		if intPart == 0 {
			out = fmt.Sprintf("%d/%d", num, den)
		} else {
			out = fmt.Sprintf("%d %d/%d", intPart, num, den)
		}
	} else {
		whole := intPart*den + num
		out = fmt.Sprintf("%d/%d", whole, den)
	}
	if neg {
		out = "-" + out
	}
	return out
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	if a < 0 {
		return -a
	}
	return a
}

func (e *Engine) renderNumber(value float64, s *section) string {
	v := value / s.scale
	// fmt's %f rounds an exact half to even; round half away from zero
	// first so that, e.g., 0.5 under code "0" renders as "1".
	p := math.Pow10(s.decimals)
	v = math.Round(v*p) / p

	var numStr string
	if s.thousands {
		numStr = groupThousands(v, s.decimals, e.decimalSep, e.thousandSep)
	} else {
		numStr = fmt.Sprintf("%0*.*f", s.width, s.decimals, v)
		if e.decimalSep != "." {
			numStr = strings.Replace(numStr, ".", e.decimalSep, 1)
		}
	}

	out := s.cleanCode
	if s.placeholder != "" {
		out = strings.Replace(out, s.placeholder, numStr, 1)
	} else if out == "" {
		out = numStr
	}
	if strings.Contains(out, "[$currency]") {
		cur := s.currency
		if cur == "" {
			cur = e.currencyCode
		}
		out = strings.Replace(out, "[$currency]", cur, 1)
	}
	return out
}

func groupThousands(v float64, decimals int, decSep, thouSep string) string {
	s := fmt.Sprintf("%.*f", decimals, v)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	parts := strings.SplitN(s, ".", 2)
	intDigits := parts[0]

	var grouped strings.Builder
	n := len(intDigits)
	for i, r := range intDigits {
		if i > 0 && (n-i)%3 == 0 {
			grouped.WriteString(thouSep)
		}
		grouped.WriteRune(r)
	}

	out := grouped.String()
	if len(parts) == 2 {
		out += decSep + parts[1]
	}
	if neg {
		out = "-" + out
	}
	return out
}
