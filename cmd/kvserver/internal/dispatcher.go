package internal

import (
	"bytes"

	"github.com/ananthvk/minikv"
	"github.com/ananthvk/minikv/internal/resp"
)

type CommandFunc func(args []resp.Value, store *minikv.Store) resp.Value

type Command struct {
	Name string
	// Arity counts the command name. A positive arity is exact, a negative one is a minimum.
	Arity   int
	Handler CommandFunc
	// Close makes the connection close once the reply has been written
	Close bool
}

var Commands = map[string]Command{
	"ping":    {Name: "ping", Arity: -1, Handler: handlePing},
	"echo":    {Name: "echo", Arity: 2, Handler: handleEcho},
	"get":     {Name: "get", Arity: 2, Handler: handleGet},
	"set":     {Name: "set", Arity: -3, Handler: handleSet},
	"del":     {Name: "del", Arity: -2, Handler: handleDel},
	"exists":  {Name: "exists", Arity: -2, Handler: handleExists},
	"keys":    {Name: "keys", Arity: 2, Handler: handleKeys},
	"dbsize":  {Name: "dbsize", Arity: 1, Handler: handleDBSize},
	"command": {Name: "command", Arity: -1, Handler: handleCommand},
	"quit":    {Name: "quit", Arity: -1, Handler: handleQuit, Close: true},
}

// Result is the outcome of executing one request frame
type Result struct {
	Value resp.Value
	// Command is the lower-cased name of a known command, empty otherwise
	Command string
	Close   bool
}

// Dispatcher maps request frames to commands and runs them against the shared store
type Dispatcher struct {
	store    *minikv.Store
	commands map[string]Command
}

func NewDispatcher(store *minikv.Store) *Dispatcher {
	return &Dispatcher{store: store, commands: Commands}
}

// Dispatch executes frame and returns the reply. Malformed requests and unknown commands produce error replies.
func (d *Dispatcher) Dispatch(frame resp.Value) resp.Value {
	return d.Execute(frame).Value
}

func (d *Dispatcher) Execute(frame resp.Value) Result {
	if frame.Type != resp.ValueTypeArray || len(frame.Array) == 0 {
		return Result{Value: resp.Error("ERR unexpected command format")}
	}
	nameValue := frame.Array[0]
	if nameValue.Type != resp.ValueTypeBulkString && nameValue.Type != resp.ValueTypeSimpleString {
		return Result{Value: resp.Error("ERR unexpected command format")}
	}

	name := bytes.ToLower(nameValue.Buffer)
	command, exists := d.commands[string(name)]
	if !exists {
		return Result{Value: resp.Errorf("ERR unknown command '%s'", truncate(nameValue.Buffer, 128))}
	}

	args := frame.Array[1:]
	if !checkArity(command.Arity, len(frame.Array)) {
		return Result{Value: wrongArguments(command.Name), Command: command.Name}
	}
	for _, arg := range args {
		if arg.Type != resp.ValueTypeBulkString {
			return Result{
				Value:   resp.Errorf("ERR wrong argument type for '%s' command", command.Name),
				Command: command.Name,
			}
		}
	}

	return Result{
		Value:   command.Handler(args, d.store),
		Command: command.Name,
		Close:   command.Close,
	}
}

func checkArity(arity int, n int) bool {
	if arity >= 0 {
		return n == arity
	}
	return n >= -arity
}

func wrongArguments(name string) resp.Value {
	return resp.Errorf("ERR wrong number of arguments for '%s' command", name)
}

func truncate(b []byte, n int) []byte {
	if len(b) > n {
		return b[:n]
	}
	return b
}
