package middleware

// Chain composes handler decorators. Chain(a, b, c)(h) wraps h so that a is
// the outermost decorator and c the innermost.
func Chain[H any](middlewares ...func(H) H) func(H) H {
	return func(final H) H {
		wrapped := final
		for i := len(middlewares) - 1; i >= 0; i-- {
			wrapped = middlewares[i](wrapped)
		}
		return wrapped
	}
}
