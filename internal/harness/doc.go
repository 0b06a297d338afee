// Package harness runs conformance scenarios for criteria.
//
// A scenario stores a list of records, runs one criteria definition
// through both a MemoryRepository and a SQLRepository, and checks that
// both return the expected ids in the expected order. This is what keeps
// SQL push-down and in-memory evaluation interchangeable.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: adults_by_name
//	description: "Adults ordered by name, oldest first on ties"
//	collection: people
//	records:
//	  - {name: carol, age: 30}
//	  - {name: bob, age: 20}
//	criteria:
//	  fields: {age: int, name: string}
//	  filter: age >= 18
//	  order_by: name, age desc
//	expect:
//	  ids: [r2, r1]
//
// Records get ids r1, r2, ... in file order. The criteria block is a
// compiler.Definition; its name defaults to the scenario name and its
// from to the collection.
//
// # Deterministic Testing
//
// Each scenario runs in a fresh in-memory SQLite database with fixed ids,
// so identical scenarios always produce identical snapshots. RunWithGolden
// compares the compiled SQL, its parameters and the selected ids against a
// golden file.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/adults.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
