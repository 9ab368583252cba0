package native

import "reflect"

// CodeMissingSymbol is raised by entries the loaded libvlc does not
// export. The exception carries no message so that ExceptionClear never
// frees Go memory.
const CodeMissingSymbol = -38

var exceptionType = reflect.TypeOf((*Exception)(nil))

// StubMissing fills every nil entry of a with a stand-in that raises
// CodeMissingSymbol through its exception argument and returns zero
// values. Entries without an exception argument just return zeros.
//
// Missing exception management entries fall back to plain zeroing.
func StubMissing(a *API) {
	if a.ExceptionInit == nil {
		a.ExceptionInit = func(ex *Exception) { *ex = Exception{} }
	}
	if a.ExceptionClear == nil {
		a.ExceptionClear = func(ex *Exception) { *ex = Exception{} }
	}
	v := reflect.ValueOf(a).Elem()
	for i := 0; i < v.NumField(); i++ {
		f := v.Field(i)
		if f.Kind() != reflect.Func || !f.IsNil() {
			continue
		}
		f.Set(missingFunc(f.Type()))
	}
}

func missingFunc(t reflect.Type) reflect.Value {
	return reflect.MakeFunc(t, func(args []reflect.Value) []reflect.Value {
		for _, arg := range args {
			if arg.Type() == exceptionType && !arg.IsNil() {
				ex := arg.Interface().(*Exception)
				ex.Raised = 1
				ex.Code = CodeMissingSymbol
			}
		}
		out := make([]reflect.Value, t.NumOut())
		for i := range out {
			out[i] = reflect.Zero(t.Out(i))
		}
		return out
	})
}
