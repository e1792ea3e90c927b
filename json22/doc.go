// Package json22 implements the JSON22 wire format: JSON extended with typed
// values, dates, BigInt and non-finite numbers.
//
// Dates travel as Date(<unix millis>), typed values as Name(<argument>), where
// Name is resolved against a caller-supplied Context on decode:
//
//	text, _ := json22.Marshal(map[string]any{"at": time.Now()}, json22.StringifyOptions{})
//	// {"at":Date(1700000000000)}
//
//	v, err := json22.Unmarshal(text, json22.ParseOptions{
//	    Context: json22.Context{"TypedModel": json22.ConstructorFor[TypedModel]()},
//	})
//
// Plain JSON is valid JSON22, so JSON documents decode unchanged.
package json22

// MimeType is the content type of JSON22 documents.
const MimeType = "application/json22"
