package wxml

import "strings"

// AttrFamily is the result of splitting an attribute name on `:` into at
// most two segments and matching the prefix against the fixed family table.
type AttrFamily int

const (
	FamilyPlain AttrFamily = iota
	FamilyWxIf
	FamilyWxElif
	FamilyWxElse
	FamilyWxFor
	FamilyWxForIndex
	FamilyWxForItem
	FamilyWxKey
	FamilyModel
	FamilyChange
	FamilyWorklet
	FamilyData
	FamilyClass
	FamilyStyle
	FamilyBind
	FamilyMutBind
	FamilyCatch
	FamilyCaptureBind
	FamilyCaptureMutBind
	FamilyCaptureCatch
	FamilyMark
	FamilyGeneric
	FamilyExtraAttr
	FamilySlot
)

// ClassifiedAttr is the outcome of classifyAttrName: either a recognized
// family plus the local (post-prefix) name, or a diagnostic to raise.
type ClassifiedAttr struct {
	Family AttrFamily
	Local  string
	Err    DiagnosticKind
	HasErr bool
}

var wxDirectives = map[string]AttrFamily{
	"if":        FamilyWxIf,
	"elif":      FamilyWxElif,
	"else":      FamilyWxElse,
	"for":       FamilyWxFor,
	"for-index": FamilyWxForIndex,
	"for-item":  FamilyWxForItem,
	"key":       FamilyWxKey,
}

var familyPrefixes = map[string]AttrFamily{
	"model":            FamilyModel,
	"change":           FamilyChange,
	"worklet":          FamilyWorklet,
	"data":             FamilyData,
	"class":            FamilyClass,
	"style":            FamilyStyle,
	"bind":             FamilyBind,
	"mut-bind":         FamilyMutBind,
	"catch":            FamilyCatch,
	"capture-bind":     FamilyCaptureBind,
	"capture-mut-bind": FamilyCaptureMutBind,
	"capture-catch":    FamilyCaptureCatch,
	"mark":             FamilyMark,
	"generic":          FamilyGeneric,
	"extra-attr":       FamilyExtraAttr,
	"slot":             FamilySlot,
}

// classifyAttrName splits name on `:` into at most two segments and
// classifies the result. A single segment is FamilyPlain (its meaning then
// depends on the enclosing element kind); two segments select a family by
// prefix, with `wx` further dispatching on the second segment; three or
// more segments is always IllegalAttributePrefix.
func classifyAttrName(name string) ClassifiedAttr {
	segs := strings.Split(name, ":")
	switch len(segs) {
	case 1:
		return ClassifiedAttr{Family: FamilyPlain, Local: segs[0]}
	case 2:
		prefix, local := segs[0], segs[1]
		if prefix == "wx" {
			if fam, ok := wxDirectives[local]; ok {
				return ClassifiedAttr{Family: fam, Local: local}
			}
			return ClassifiedAttr{Err: IllegalAttributeName, HasErr: true}
		}
		if fam, ok := familyPrefixes[prefix]; ok {
			return ClassifiedAttr{Family: fam, Local: local}
		}
		return ClassifiedAttr{Err: IllegalAttributePrefix, HasErr: true}
	default:
		return ClassifiedAttr{Err: IllegalAttributePrefix, HasErr: true}
	}
}

// AttrValueMode says how an attribute's raw text should be parsed.
type AttrValueMode int

const (
	ValueModeValue     AttrValueMode = iota // text-with-interpolations
	ValueModeStaticStr                      // plain identifier-like text; `{{` is an error
	ValueModeScopeName                      // plain text validated as a JS identifier
)

// valueModeFor returns the parsing mode for a classified attribute. Scope
// names are introduced by wx:for-item/wx:for-index and by a `wxs` element's
// `module` attribute; static strings cover wx:else, wx:key, worklet:/
// generic:/extra-attr: entries, a TemplateRef's `name` and an Include's
// `src`, none of which accept interpolation.
func valueModeFor(fam AttrFamily, plainLocal string, kind ElementKindTag) AttrValueMode {
	switch fam {
	case FamilyWxForItem, FamilyWxForIndex:
		return ValueModeScopeName
	case FamilyWxElse, FamilyWxKey, FamilyWorklet, FamilyGeneric, FamilyExtraAttr:
		return ValueModeStaticStr
	}
	if fam == FamilyPlain {
		switch kind {
		case KindInclude:
			if plainLocal == "src" {
				return ValueModeStaticStr
			}
			if plainLocal == "module" {
				return ValueModeScopeName
			}
		case KindTemplateRef:
			if plainLocal == "name" {
				return ValueModeStaticStr
			}
		}
	}
	return ValueModeValue
}
