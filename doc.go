// Package sprig is the object-lifecycle and scripting core of a retained-mode
// 2D engine for [Ebitengine].
//
// Every engine value is reference counted. Constructors return objects that
// are already registered with the current [AutoreleasePool], so a value that
// nobody retains is released when the pool drains at the end of the frame:
//
//	rt := sprig.NewRuntime(sprig.WithLogger(logger))
//	node := sprig.NewSprite(rt, "hero")
//	parent.AddChild(node) // parent retains; the pool drops the creator's ref
//
// # Runtime
//
// A [Runtime] holds the pool stack, the [ScriptEngineManager], the
// [Scheduler] and the [ActionManager]. It is passed to every constructor
// instead of living in package globals. [DefaultRuntime] exists for programs
// that want the shared script engine manager.
//
// # Actions
//
// Actions run against a [Node] through the action manager. Instant actions
// ([Show], [Hide], [ToggleVisibility], [RemoveSelf], [FlipX], [FlipY],
// [Place], [CallFunc]) finish in one step; interval actions ([MoveBy],
// [FadeTo], [DelayTime], [Sequence]) ease over a duration using [gween].
// [Clone] duplicates an action graph through a [Zone] so shared children are
// copied once.
//
// # Scripting
//
// A [ScriptEngine] takes part in the object lifecycle: it is told when an
// object with a script proxy is destroyed, and it owns the handler ids that
// [CallFunc], [SchedulerScriptHandlerEntry] and [TouchScriptHandlerEntry]
// release exactly once. Two implementations ship with the module:
// sprig/luaengine (GopherLua) and sprig/jsengine (goja).
//
// # Labels
//
// A [Label] renders its string through a [TextRenderer], exposes clickable
// link regions and embedded image bounds, and can reveal itself one
// character at a time with [Label.StartLoopDisplay].
//
// # Automation
//
// A [Director] accepts synthetic pointer input ([Director.InjectClick],
// [Director.InjectDrag]) and queued screenshots. [LoadTestScript] parses a
// JSON list of steps that a [TestRunner] replays one frame at a time.
//
// [Ebitengine]: https://ebitengine.org
// [gween]: https://github.com/tanema/gween
package sprig
