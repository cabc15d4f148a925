// Package flowkit is the public, strongly-typed surface over the
// internal flow builder, validator, and executor: construct a Flow with
// the fluent handles in this package, validate it, and run it.
//
// A minimal flow looks like:
//
//	b := flowkit.NewFlow("sum")
//	first := b.Activity(readInt, "first")
//	second := b.Activity(readInt, "second")
//	sum := b.Activity(addInts, "sum")
//	flowkit.Bind[int](sum, "FirstNumber", setFirstNumber).ToResultOf(first)
//	flowkit.Bind[int](sum, "SecondNumber", setSecondNumber).ToResultOf(second)
//	first.ConnectNext(second)
//	second.ConnectNext(sum)
//	b.WithInitial(first)
//	flow := flowkit.Build(b)
//	if res := flow.Validate(); !res.OK() { ... }
//	err := flow.Run(ctx)
package flowkit
