package internal

import (
	"errors"

	"github.com/ananthvk/minikv"
	"github.com/ananthvk/minikv/internal/resp"
)

// PING replies PONG, or echoes its single argument like redis does
func handlePing(args []resp.Value, store *minikv.Store) resp.Value {
	switch len(args) {
	case 0:
		return resp.SimpleString("PONG")
	case 1:
		return resp.BulkString(args[0].Buffer)
	default:
		return wrongArguments("ping")
	}
}

func handleEcho(args []resp.Value, store *minikv.Store) resp.Value {
	return resp.BulkString(args[0].Buffer)
}

func handleGet(args []resp.Value, store *minikv.Store) resp.Value {
	value, err := store.Get(args[0].Buffer)
	if err != nil {
		if errors.Is(err, minikv.ErrKeyNotFound) {
			return resp.NullBulkString()
		}
		return resp.Error("ERR " + err.Error())
	}
	return resp.BulkString(value)
}

// SET options (EX, NX, ...) are not supported
func handleSet(args []resp.Value, store *minikv.Store) resp.Value {
	if len(args) != 2 {
		return resp.Error("ERR syntax error")
	}
	store.Set(args[0].Buffer, args[1].Buffer)
	return resp.SimpleString("OK")
}

func handleDel(args []resp.Value, store *minikv.Store) resp.Value {
	deleteCount := 0
	for _, key := range args {
		if store.Delete(key.Buffer) {
			deleteCount++
		}
	}
	return resp.Integer(int64(deleteCount))
}

func handleExists(args []resp.Value, store *minikv.Store) resp.Value {
	count := 0
	for _, key := range args {
		if store.Exists(key.Buffer) {
			count++
		}
	}
	return resp.Integer(int64(count))
}

func handleKeys(args []resp.Value, store *minikv.Store) resp.Value {
	keys := store.ListKeys(string(args[0].Buffer))
	values := make([]resp.Value, len(keys))
	for i, key := range keys {
		values[i] = resp.BulkStringFromString(key)
	}
	return resp.Array(values...)
}

func handleDBSize(args []resp.Value, store *minikv.Store) resp.Value {
	return resp.Integer(int64(store.Size()))
}

// COMMAND is answered with an empty list so interactive clients can connect
func handleCommand(args []resp.Value, store *minikv.Store) resp.Value {
	return resp.Array()
}

func handleQuit(args []resp.Value, store *minikv.Store) resp.Value {
	return resp.SimpleString("OK")
}
