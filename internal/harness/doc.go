// Package harness runs YAML-driven conformance scenarios through the full
// bridge pipeline: parse the source, build the circuit, export it, and check
// the emitted text against a golden file. Stable scenarios additionally
// re-import the emitted text and require the rebuilt circuit to carry the
// same fingerprint, which is the round-trip property in executable form.
//
// Scenario files live under testdata/scenarios, golden files under
// testdata/golden.
package harness
