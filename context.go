package asterisk

import "context"

// Context is the execution context threaded through dispatcher and
// transport calls. It is a plain alias for context.Context; queue and
// caller correlation metadata rides alongside it via package scope
// rather than a bespoke context type.
type Context = context.Context
