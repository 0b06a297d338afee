package compiler

import (
	"fmt"

	"github.com/roach88/criteria/internal/ir"
)

func people() []ir.IRObject {
	return []ir.IRObject{
		person("carol", 30),
		person("bob", 20),
		person("carol", 45),
		person("alice", 5),
		person("bob", 60),
	}
}

func person(name string, age int64) ir.IRObject {
	return ir.NewIRObject(ir.O("name", ir.IRString(name)), ir.O("age", ir.IRInt(age)))
}

// labels renders documents as name/age pairs for compact assertions.
func labels(docs []ir.IRObject) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = fmt.Sprintf("%v/%v", d["name"], d["age"])
	}
	return out
}
