package heap

// Kind tags every heap object's dynamic type. It occupies the high 8 bits
// of the header word.
type Kind uint8

const (
	// KindNone is not a real object kind; it is returned by KindOf(nil)
	// and never appears in a tracked object's header.
	KindNone Kind = iota
	KindString
	KindUpValue
	KindClosure
	KindNativeFunction
	KindNormalFunction
	KindSlice
	KindVector
	KindHashMap
	KindError
	KindUnion
	KindExternal
	KindReflectionVoid
	KindReflectionIntegral
	KindReflectionFloating
	KindReflectionString
	KindReflectionError
	KindReflectionUnion
	KindReflectionExternal
	KindReflectionSlice
	KindReflectionArray
	KindReflectionMap
	KindReflectionFunction
	numKinds
)

var kindNames = [numKinds]string{
	KindNone:               "None",
	KindString:             "String",
	KindUpValue:            "UpValue",
	KindClosure:            "Closure",
	KindNativeFunction:     "NativeFunction",
	KindNormalFunction:     "NormalFunction",
	KindSlice:              "Slice",
	KindVector:             "Vector",
	KindHashMap:            "HashMap",
	KindError:              "Error",
	KindUnion:              "Union",
	KindExternal:           "External",
	KindReflectionVoid:     "ReflectionVoid",
	KindReflectionIntegral: "ReflectionIntegral",
	KindReflectionFloating: "ReflectionFloating",
	KindReflectionString:   "ReflectionString",
	KindReflectionError:    "ReflectionError",
	KindReflectionUnion:    "ReflectionUnion",
	KindReflectionExternal: "ReflectionExternal",
	KindReflectionSlice:    "ReflectionSlice",
	KindReflectionArray:    "ReflectionArray",
	KindReflectionMap:      "ReflectionMap",
	KindReflectionFunction: "ReflectionFunction",
}

// IsReflection reports whether k is one of the eleven reflected-type kinds.
func (k Kind) IsReflection() bool {
	return k >= KindReflectionVoid && k <= KindReflectionFunction
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "Unknown"
}
