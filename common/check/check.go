package check

import "fmt"

// PanicIfErr panics on a non-nil error. Use it only for programmer errors,
// i.e. conditions that cannot occur unless the calling code itself is wrong.
func PanicIfErr(err error) {
	if err != nil {
		panic(err)
	}
}

// PanicIfNotf panics on false with a formatted message.
func PanicIfNotf(flag bool, format string, args ...any) {
	if !flag {
		panic(fmt.Sprintf(format, args...))
	}
}
