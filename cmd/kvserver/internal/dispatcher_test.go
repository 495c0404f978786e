package internal

import (
	"strings"
	"testing"

	"github.com/ananthvk/minikv"
	"github.com/ananthvk/minikv/internal/resp"
	"github.com/stretchr/testify/assert"
)

func request(args ...string) resp.Value {
	values := make([]resp.Value, len(args))
	for i, arg := range args {
		values[i] = resp.BulkStringFromString(arg)
	}
	return resp.Array(values...)
}

func TestDispatchScenarios(t *testing.T) {
	d := NewDispatcher(minikv.NewStore())

	assert.Equal(t, "+PONG\r\n", string(resp.Encode(d.Dispatch(request("PING")))))
	assert.Equal(t, "$5\r\nhello\r\n", string(resp.Encode(d.Dispatch(request("ECHO", "hello")))))
	assert.Equal(t, "+OK\r\n", string(resp.Encode(d.Dispatch(request("SET", "k", "v")))))
	assert.Equal(t, "$1\r\nv\r\n", string(resp.Encode(d.Dispatch(request("GET", "k")))))
	assert.Equal(t, "$-1\r\n", string(resp.Encode(d.Dispatch(request("GET", "missing")))))
}

func TestDispatch(t *testing.T) {
	tests := []struct {
		name    string
		request resp.Value
		want    resp.Value
	}{
		{"ping lower case", request("ping"), resp.SimpleString("PONG")},
		{"ping mixed case", request("PiNg"), resp.SimpleString("PONG")},
		{"ping with message", request("PING", "hi"), resp.BulkStringFromString("hi")},
		{"ping too many", request("PING", "a", "b"), resp.Error("ERR wrong number of arguments for 'ping' command")},
		{"echo empty", request("ECHO", ""), resp.BulkStringFromString("")},
		{"echo no args", request("ECHO"), resp.Error("ERR wrong number of arguments for 'echo' command")},
		{"echo too many", request("ECHO", "a", "b"), resp.Error("ERR wrong number of arguments for 'echo' command")},
		{"get no args", request("GET"), resp.Error("ERR wrong number of arguments for 'get' command")},
		{"set one arg", request("SET", "k"), resp.Error("ERR wrong number of arguments for 'set' command")},
		{"set options", request("SET", "k", "v", "EX", "10"), resp.Error("ERR syntax error")},
		{"unknown command", request("FLUSHALL"), resp.Error("ERR unknown command 'FLUSHALL'")},
		{"empty array", resp.Array(), resp.Error("ERR unexpected command format")},
		{"not an array", resp.BulkStringFromString("PING"), resp.Error("ERR unexpected command format")},
		{"null array", resp.NullArray(), resp.Error("ERR unexpected command format")},
		{"integer name", resp.Array(resp.Integer(1)), resp.Error("ERR unexpected command format")},
		{"simple string name", resp.Array(resp.SimpleString("PING")), resp.SimpleString("PONG")},
		{
			"integer argument",
			resp.Array(resp.BulkStringFromString("ECHO"), resp.Integer(5)),
			resp.Error("ERR wrong argument type for 'echo' command"),
		},
		{
			"null argument",
			resp.Array(resp.BulkStringFromString("GET"), resp.NullBulkString()),
			resp.Error("ERR wrong argument type for 'get' command"),
		},
		{"dbsize", request("DBSIZE"), resp.Integer(0)},
		{"command", request("COMMAND", "DOCS"), resp.Array()},
		{"quit", request("QUIT"), resp.SimpleString("OK")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDispatcher(minikv.NewStore())
			got := d.Dispatch(tt.request)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestUnknownCommandNameIsTruncated(t *testing.T) {
	d := NewDispatcher(minikv.NewStore())
	name := strings.Repeat("x", 1000)
	got := d.Dispatch(request(name))
	assert.True(t, got.IsError())
	assert.Equal(t, "ERR unknown command '"+name[:128]+"'", string(got.Buffer))
}

func TestBinarySafeValues(t *testing.T) {
	d := NewDispatcher(minikv.NewStore())
	value := "a\r\nb\x00c"
	assert.True(t, resp.SimpleString("OK").Equal(d.Dispatch(request("SET", "bin", value))))
	assert.True(t, resp.BulkStringFromString(value).Equal(d.Dispatch(request("GET", "bin"))))
}

func TestSetOverwrites(t *testing.T) {
	d := NewDispatcher(minikv.NewStore())
	d.Dispatch(request("SET", "k", "first"))
	d.Dispatch(request("SET", "k", "second"))
	assert.True(t, resp.BulkStringFromString("second").Equal(d.Dispatch(request("GET", "k"))))
}

func TestKeyspaceCommands(t *testing.T) {
	d := NewDispatcher(minikv.NewStore())
	d.Dispatch(request("SET", "user:1", "a"))
	d.Dispatch(request("SET", "user:2", "b"))
	d.Dispatch(request("SET", "session", "c"))

	assert.True(t, resp.Integer(3).Equal(d.Dispatch(request("DBSIZE"))))
	assert.True(t, resp.Integer(2).Equal(d.Dispatch(request("EXISTS", "user:1", "session", "nope"))))
	assert.True(t, resp.Array(
		resp.BulkStringFromString("user:1"),
		resp.BulkStringFromString("user:2"),
	).Equal(d.Dispatch(request("KEYS", "user:*"))))

	assert.True(t, resp.Integer(2).Equal(d.Dispatch(request("DEL", "user:1", "session", "nope"))))
	assert.True(t, resp.Integer(1).Equal(d.Dispatch(request("DBSIZE"))))
	assert.True(t, resp.NullBulkString().Equal(d.Dispatch(request("GET", "user:1"))))
}

func TestExecuteResult(t *testing.T) {
	d := NewDispatcher(minikv.NewStore())

	result := d.Execute(request("QUIT"))
	assert.Equal(t, "quit", result.Command)
	assert.True(t, result.Close)

	result = d.Execute(request("GET", "k"))
	assert.Equal(t, "get", result.Command)
	assert.False(t, result.Close)

	result = d.Execute(request("NOPE"))
	assert.Empty(t, result.Command)
	assert.True(t, result.Value.IsError())
}
