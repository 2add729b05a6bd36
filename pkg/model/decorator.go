package model

// Decorator rewrites a form definition before it is mounted, for example to
// expand textual render rules into structured groups.
type Decorator interface {
	Decorate(*FormDefinition) error
}

// DecoratorFunc adapts a function into a Decorator.
type DecoratorFunc func(*FormDefinition) error

// Decorate calls the underlying function.
func (fn DecoratorFunc) Decorate(form *FormDefinition) error {
	return fn(form)
}
