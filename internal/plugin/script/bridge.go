package script

import (
	"encoding/json"
	"strconv"

	"github.com/tidwall/gjson"
	lua "github.com/yuin/gopher-lua"
)

// fromJSON converts a parsed JSON value to Lua. Arrays become sequences and
// null becomes nil.
func fromJSON(L *lua.LState, r gjson.Result) lua.LValue {
	switch r.Type {
	case gjson.Null:
		return lua.LNil
	case gjson.False:
		return lua.LFalse
	case gjson.True:
		return lua.LTrue
	case gjson.Number:
		return lua.LNumber(r.Num)
	case gjson.String:
		return lua.LString(r.Str)
	}
	t := L.NewTable()
	if r.IsArray() {
		for _, v := range r.Array() {
			t.Append(fromJSON(L, v))
		}
		return t
	}
	r.ForEach(func(k, v gjson.Result) bool {
		t.RawSetString(k.String(), fromJSON(L, v))
		return true
	})
	return t
}

// toGo converts a Lua value for JSON encoding. Functions and cyclic
// references become nil.
func toGo(lv lua.LValue) any {
	return toGoVisited(lv, make(map[*lua.LTable]bool))
}

func toGoVisited(lv lua.LValue, visited map[*lua.LTable]bool) any {
	switch v := lv.(type) {
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		f := float64(v)
		if f == float64(int64(f)) {
			return int64(f)
		}
		return f
	case lua.LString:
		return string(v)
	case *lua.LTable:
		if visited[v] {
			return nil
		}
		visited[v] = true
		defer delete(visited, v)
		return tableToGo(v, visited)
	}
	return nil
}

// tableToGo returns a slice for tables with keys 1..n and a map otherwise.
func tableToGo(t *lua.LTable, visited map[*lua.LTable]bool) any {
	n, count := t.Len(), 0
	t.ForEach(func(lua.LValue, lua.LValue) { count++ })
	if n > 0 && n == count {
		arr := make([]any, n)
		for i := 1; i <= n; i++ {
			arr[i-1] = toGoVisited(t.RawGetInt(i), visited)
		}
		return arr
	}
	m := make(map[string]any, count)
	t.ForEach(func(k, v lua.LValue) {
		key := k.String()
		if kn, ok := k.(lua.LNumber); ok {
			key = strconv.FormatFloat(float64(kn), 'f', -1, 64)
		}
		m[key] = toGoVisited(v, visited)
	})
	return m
}

// encode returns the JSON form of a Lua value.
func encode(lv lua.LValue) (string, error) {
	raw, err := json.Marshal(toGo(lv))
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// payloadJSON returns the JSON form of a command payload. Raw JSON passes
// through unchanged.
func payloadJSON(payload any) (string, error) {
	switch v := payload.(type) {
	case json.RawMessage:
		if len(v) == 0 {
			return "null", nil
		}
		return string(v), nil
	case nil:
		return "null", nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
