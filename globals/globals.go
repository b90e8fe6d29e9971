// Package globals is the static catalog of well-known global namespaces
// the plugin can proxy. Each entry describes the shape of one global
// (a plain object, a constructor, or a bare callable) and how every
// member of it may be hoisted into a local binding. Adding support for
// a new global is a data change in this file, never a logic change.
package globals

import "sort"

// MemberKind classifies how a namespace member behaves when copied out
// of its owner into a local constant.
type MemberKind int

const (
	// Constant is a plain data property; the value is copied as-is.
	Constant MemberKind = iota
	// Func is a function that never reads its receiver; the reference
	// is copied as-is.
	Func
	// FuncBind is a function that inspects `this`; the copied reference
	// must be pre-bound to the owning namespace or later unbound calls
	// would throw or misbehave.
	FuncBind
	// Property is backed by a getter or setter. It can never be hoisted
	// to a constant: reading it eagerly would freeze a live value (or
	// fire a side effect), so it is always skipped.
	Property
)

// NodeKind is the shape of a namespace itself.
type NodeKind int

const (
	// ObjectNode is a plain global object (Math, JSON, console).
	ObjectNode NodeKind = iota
	// ConstructorNode is a constructor-like global whose static members
	// are hoisted (Object, Promise).
	ConstructorNode
	// FuncNode is a global that is itself a callable value with no
	// members worth expanding (fetch). It is aliased whole.
	FuncNode
)

// Member is one named property of a namespace.
type Member struct {
	Name string
	Kind MemberKind
}

// Node describes a namespace shape plus its hoistable members, in the
// order declarations should be emitted.
type Node struct {
	Kind    NodeKind
	Members []Member
}

// Rule is the handle rule for one namespace. It is a closed union:
// Noop (leave the global alone), Direct (one shape for every
// platform), or PlatformDiff (per-platform variants).
type Rule interface{ isRule() }

// Noop means the namespace is configured but nothing is hoisted for
// the active platform; it still gets a variable-only proxy.
type Noop struct{}

// Direct applies the same node shape on every platform.
type Direct struct{ Node Node }

// PlatformDiff selects a variant by build platform name ("node",
// "browser"). Diff values are Noop or Direct, never nested diffs.
type PlatformDiff struct{ Diffs map[string]Rule }

func (Noop) isRule()         {}
func (Direct) isRule()       {}
func (PlatformDiff) isRule() {}

func obj(members ...Member) Rule {
	return Direct{Node{Kind: ObjectNode, Members: members}}
}

func ctor(members ...Member) Rule {
	return Direct{Node{Kind: ConstructorNode, Members: members}}
}

func callable() Rule {
	return Direct{Node{Kind: FuncNode}}
}

func m(name string, kind MemberKind) Member {
	return Member{Name: name, Kind: kind}
}

// ctorRules catalogs constructor-like globals. Static methods that use
// `this` as the species constructor (Array.from, Promise.resolve) are
// FuncBind; pure statics are Func; numeric limits and well-known
// symbols are Constant.
var ctorRules = map[string]Rule{
	"Object": ctor(
		m("assign", Func),
		m("create", Func),
		m("defineProperty", Func),
		m("defineProperties", Func),
		m("entries", Func),
		m("freeze", Func),
		m("fromEntries", Func),
		m("getOwnPropertyDescriptor", Func),
		m("getOwnPropertyDescriptors", Func),
		m("getOwnPropertyNames", Func),
		m("getOwnPropertySymbols", Func),
		m("getPrototypeOf", Func),
		m("is", Func),
		m("isExtensible", Func),
		m("isFrozen", Func),
		m("isSealed", Func),
		m("keys", Func),
		m("preventExtensions", Func),
		m("seal", Func),
		m("setPrototypeOf", Func),
		m("values", Func),
	),
	"Array": ctor(
		m("isArray", Func),
		m("from", FuncBind),
		m("of", FuncBind),
	),
	"Number": ctor(
		m("isFinite", Func),
		m("isInteger", Func),
		m("isNaN", Func),
		m("isSafeInteger", Func),
		m("parseFloat", Func),
		m("parseInt", Func),
		m("EPSILON", Constant),
		m("MAX_SAFE_INTEGER", Constant),
		m("MAX_VALUE", Constant),
		m("MIN_SAFE_INTEGER", Constant),
		m("MIN_VALUE", Constant),
	),
	"String": ctor(
		m("fromCharCode", Func),
		m("fromCodePoint", Func),
		m("raw", Func),
	),
	"Date": ctor(
		m("now", Func),
		m("parse", Func),
		m("UTC", Func),
	),
	"Promise": ctor(
		m("all", FuncBind),
		m("allSettled", FuncBind),
		m("any", FuncBind),
		m("race", FuncBind),
		m("reject", FuncBind),
		m("resolve", FuncBind),
	),
	"Symbol": ctor(
		m("for", Func),
		m("keyFor", Func),
		m("asyncIterator", Constant),
		m("hasInstance", Constant),
		m("iterator", Constant),
		m("toPrimitive", Constant),
		m("toStringTag", Constant),
	),
	// Proxy has no usable statics; alias the constructor itself.
	"Proxy": callable(),
	"Buffer": PlatformDiff{Diffs: map[string]Rule{
		"node": ctor(
			m("alloc", FuncBind),
			m("allocUnsafe", FuncBind),
			m("byteLength", Func),
			m("concat", FuncBind),
			m("from", FuncBind),
			m("isBuffer", Func),
			m("of", FuncBind),
		),
		"browser": Noop{},
	}},
}

// varRules catalogs plain global objects and bare callables. console
// methods are FuncBind: several hosts implement them as methods that
// require the console receiver.
var varRules = map[string]Rule{
	"Math": obj(
		m("abs", Func),
		m("atan2", Func),
		m("cbrt", Func),
		m("ceil", Func),
		m("clz32", Func),
		m("exp", Func),
		m("floor", Func),
		m("fround", Func),
		m("hypot", Func),
		m("imul", Func),
		m("log", Func),
		m("log10", Func),
		m("log2", Func),
		m("max", Func),
		m("min", Func),
		m("pow", Func),
		m("random", Func),
		m("round", Func),
		m("sign", Func),
		m("sqrt", Func),
		m("trunc", Func),
		m("E", Constant),
		m("LN10", Constant),
		m("LN2", Constant),
		m("LOG10E", Constant),
		m("LOG2E", Constant),
		m("PI", Constant),
		m("SQRT1_2", Constant),
		m("SQRT2", Constant),
	),
	"JSON": obj(
		m("parse", Func),
		m("stringify", Func),
	),
	"Reflect": obj(
		m("apply", Func),
		m("construct", Func),
		m("defineProperty", Func),
		m("deleteProperty", Func),
		m("get", Func),
		m("getOwnPropertyDescriptor", Func),
		m("getPrototypeOf", Func),
		m("has", Func),
		m("isExtensible", Func),
		m("ownKeys", Func),
		m("preventExtensions", Func),
		m("set", Func),
		m("setPrototypeOf", Func),
	),
	"console": obj(
		m("assert", FuncBind),
		m("count", FuncBind),
		m("debug", FuncBind),
		m("dir", FuncBind),
		m("error", FuncBind),
		m("group", FuncBind),
		m("groupEnd", FuncBind),
		m("info", FuncBind),
		m("log", FuncBind),
		m("table", FuncBind),
		m("time", FuncBind),
		m("timeEnd", FuncBind),
		m("trace", FuncBind),
		m("warn", FuncBind),
	),
	"crypto": obj(
		m("getRandomValues", FuncBind),
		m("randomUUID", FuncBind),
		// crypto.subtle is an accessor property and must stay behind
		// the namespace object.
		m("subtle", Property),
	),
	"performance": obj(
		m("clearMarks", FuncBind),
		m("clearMeasures", FuncBind),
		m("mark", FuncBind),
		m("measure", FuncBind),
		m("now", FuncBind),
		m("timeOrigin", Property),
	),
	"process": PlatformDiff{Diffs: map[string]Rule{
		"node": obj(
			m("argv", Constant),
			m("cwd", FuncBind),
			m("exit", FuncBind),
			m("nextTick", FuncBind),
			m("platform", Constant),
			m("version", Constant),
			// process.env is interposed by the runtime; reads must go
			// through the namespace object.
			m("env", Property),
		),
		"browser": Noop{},
	}},
	"localStorage": PlatformDiff{Diffs: map[string]Rule{
		"browser": obj(
			m("clear", FuncBind),
			m("getItem", FuncBind),
			m("key", FuncBind),
			m("removeItem", FuncBind),
			m("setItem", FuncBind),
			m("length", Property),
		),
		"node": Noop{},
	}},
	"fetch":           callable(),
	"queueMicrotask":  callable(),
	"structuredClone": callable(),
}

// IsGlobalCtor reports whether name is a cataloged constructor-like
// global.
func IsGlobalCtor(name string) bool {
	_, ok := ctorRules[name]
	return ok
}

// IsGlobalVar reports whether name is a cataloged plain global.
func IsGlobalVar(name string) bool {
	_, ok := varRules[name]
	return ok
}

// CtorRule returns the default rule for a constructor-like global.
func CtorRule(name string) (Rule, bool) {
	r, ok := ctorRules[name]
	return r, ok
}

// VarRule returns the default rule for a plain global.
func VarRule(name string) (Rule, bool) {
	r, ok := varRules[name]
	return r, ok
}

// Lookup returns the default rule for any cataloged namespace,
// checking constructors first.
func Lookup(name string) (Rule, bool) {
	if r, ok := ctorRules[name]; ok {
		return r, true
	}
	r, ok := varRules[name]
	return r, ok
}

// CtorNames returns sorted names of all cataloged constructors.
func CtorNames() []string {
	return sortedKeys(ctorRules)
}

// VarNames returns sorted names of all cataloged plain globals.
func VarNames() []string {
	return sortedKeys(varRules)
}

func sortedKeys(rules map[string]Rule) []string {
	names := make([]string, 0, len(rules))
	for name := range rules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
