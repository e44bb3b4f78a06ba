// Package workshop wires the reactive runtime, its observers and the
// workshop services into one application.
//
// This is the recommended import for programs that want the whole workshop:
//
//	import workshop "github.com/Kryostatic94/lsx-signal-workshop"
//
// Usage:
//
//	cfg, err := config.LoadFromWorkingDir()
//	app, err := workshop.New(cfg)
//	defer app.Close()
//
//	app.Counter().Increment()
//	fmt.Println(app.Counter().DoubleCount().Peek())
//
// The reactive primitives themselves live in pkg/reactive.
package workshop

// Version is the workshop release, overridden at build time with
// -ldflags "-X github.com/Kryostatic94/lsx-signal-workshop.Version=...".
var Version = "dev"
