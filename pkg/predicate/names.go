package predicate

// ConditionName identifies a condition in the rule vocabulary.
type ConditionName string

// Structural conditions map onto native validator methods.
const (
	Required ConditionName = "required"
	Length   ConditionName = "length"
	Min      ConditionName = "min"
	Max      ConditionName = "max"
	Matches  ConditionName = "matches"
	Email    ConditionName = "email"
	URL      ConditionName = "url"
	UUID     ConditionName = "uuid"
	Positive ConditionName = "positive"
	Negative ConditionName = "negative"
	Integer  ConditionName = "integer"
	LessThan ConditionName = "lessThan"
	MoreThan ConditionName = "moreThan"
)

// Semantic conditions registered by NewRegistry.
const (
	Filled         ConditionName = "filled"
	Empty          ConditionName = "empty"
	Equals         ConditionName = "equals"
	NotEquals      ConditionName = "notEquals"
	Includes       ConditionName = "includes"
	Excludes       ConditionName = "excludes"
	EqualsField    ConditionName = "equalsField"
	NotEqualsField ConditionName = "notEqualsField"
	OneOf          ConditionName = "oneOf"
	NotOneOf       ConditionName = "notOneOf"
	Before         ConditionName = "before"
	After          ConditionName = "after"
	Checked        ConditionName = "checked"
)

var structuralNames = []ConditionName{
	Required, Length, Min, Max, Matches, Email, URL, UUID,
	Positive, Negative, Integer, LessThan, MoreThan,
}

// StructuralNames lists every structural condition.
func StructuralNames() []ConditionName {
	return append([]ConditionName(nil), structuralNames...)
}

// IsStructural reports whether name is a structural condition.
func IsStructural(name string) bool {
	_, ok := structuralChecks[ConditionName(name)]
	return ok
}
