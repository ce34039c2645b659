package sprig

import (
	"fmt"
	"os"

	"go.uber.org/zap"
)

// ScriptType identifies the foreign runtime behind a ScriptEngine.
type ScriptType uint8

const (
	ScriptTypeNone ScriptType = iota
	ScriptTypeLua
	ScriptTypeJavaScript
)

// String returns the config name of the script type.
func (t ScriptType) String() string {
	switch t {
	case ScriptTypeLua:
		return "lua"
	case ScriptTypeJavaScript:
		return "js"
	default:
		return "none"
	}
}

// ScriptFunction pairs an optional native target with a foreign handler id.
// Handler 0 means no handler.
type ScriptFunction struct {
	Target  Object
	Handler int
}

// ScriptEngine is the contract a foreign script runtime implements to take
// part in the object and handler lifecycle.
//
// Handler ids are opaque, engine-allocated integers. An engine must accept
// RemoveScriptHandler for every id it handed out exactly once per id.
type ScriptEngine interface {
	ScriptType() ScriptType

	// RemoveScriptObject drops the script-side proxy of obj.
	RemoveScriptObject(obj Object)
	RemoveScriptUserData(id int)
	RemoveScriptHandler(handler int)
	// ReallocateScriptHandler returns a new id bound to the same callable,
	// or 0 when handler is unknown.
	ReallocateScriptHandler(handler int) int
	IsScriptFunctionSame(h1, h2 int) bool

	ExecuteString(code string) error
	// ExecuteScriptFile runs an already read (and decrypted) script. name is
	// used for error messages only.
	ExecuteScriptFile(name string, code []byte) error
	ExecuteGlobalFunction(name string) (int, error)
	ExecuteCallFuncActionEvent(action *CallFunc, target Object) error
	ExecuteSchedule(fn ScriptFunction, dt float32) error
	ExecuteEvent(fn ScriptFunction, event string) error
	ExecuteEventWithArgs(fn ScriptFunction, args ...any) error
	// ExecuteObjectDestructor notifies script code that obj is going away.
	ExecuteObjectDestructor(obj Object)

	// HandleAssert gives the engine a chance to report a failed assertion.
	// Returning true suppresses the native handling.
	HandleAssert(msg string) bool
	Close() error
}

// DecryptFunc transforms a script file's bytes before execution.
type DecryptFunc func(name string, data []byte) ([]byte, error)

// ScriptEngineManager holds at most one active ScriptEngine.
type ScriptEngineManager struct {
	log     *zap.Logger
	engine  ScriptEngine
	decrypt DecryptFunc
}

// NewScriptEngineManager returns a manager with no engine installed.
func NewScriptEngineManager(log *zap.Logger) *ScriptEngineManager {
	if log == nil {
		log = zap.NewNop()
	}
	return &ScriptEngineManager{log: log.Named("script")}
}

// ScriptEngine returns the active engine, or nil.
func (m *ScriptEngineManager) ScriptEngine() ScriptEngine {
	return m.engine
}

// SetScriptEngine installs e, closing the previous engine first.
func (m *ScriptEngineManager) SetScriptEngine(e ScriptEngine) {
	if m.engine == e {
		return
	}
	m.RemoveScriptEngine()
	m.engine = e
	if e != nil {
		m.log.Info("script engine installed", zap.Stringer("type", e.ScriptType()))
	}
}

// RemoveScriptEngine closes and forgets the active engine.
func (m *ScriptEngineManager) RemoveScriptEngine() {
	if m.engine == nil {
		return
	}
	e := m.engine
	m.engine = nil
	if err := e.Close(); err != nil {
		m.log.Warn("closing script engine", zap.Error(err))
	}
	m.log.Info("script engine removed", zap.Stringer("type", e.ScriptType()))
}

// SetScriptDecryptFunc sets the hook applied to script files before they run.
func (m *ScriptEngineManager) SetScriptDecryptFunc(fn DecryptFunc) {
	m.decrypt = fn
}

// ScriptDecryptFunc returns the decrypt hook, or nil.
func (m *ScriptEngineManager) ScriptDecryptFunc() DecryptFunc {
	return m.decrypt
}

// ExecuteScriptFile reads path, runs it through the decrypt hook and hands
// it to the active engine.
func (m *ScriptEngineManager) ExecuteScriptFile(path string) error {
	if m.engine == nil {
		return fmt.Errorf("execute %s: no script engine", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}
	if m.decrypt != nil {
		data, err = m.decrypt(path, data)
		if err != nil {
			return fmt.Errorf("decrypt %s: %w", path, err)
		}
	}
	if err := m.engine.ExecuteScriptFile(path, data); err != nil {
		return fmt.Errorf("execute %s: %w", path, err)
	}
	return nil
}

// HandleAssert forwards a failed assertion to the active engine.
func (m *ScriptEngineManager) HandleAssert(msg string) bool {
	if m.engine == nil {
		return false
	}
	return m.engine.HandleAssert(msg)
}

var sharedScriptManager *ScriptEngineManager

// SharedScriptEngineManager returns the process-wide manager, creating it on
// first use. It logs through zap's global logger.
func SharedScriptEngineManager() *ScriptEngineManager {
	if sharedScriptManager == nil {
		sharedScriptManager = NewScriptEngineManager(zap.L())
	}
	return sharedScriptManager
}

// PurgeSharedScriptEngineManager closes the shared manager's engine and drops
// the manager along with the default runtime bound to it.
func PurgeSharedScriptEngineManager() {
	if sharedScriptManager == nil {
		return
	}
	sharedScriptManager.RemoveScriptEngine()
	sharedScriptManager = nil
	defaultRuntime = nil
}
