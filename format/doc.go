// Package format names the document formats treedoc understands.
//
// # Usage
//
//	f, err := format.ParseFormat("yml")
//	if err != nil {
//	    // errors.Is(err, format.ErrBadFormat)
//	}
//	f.MIME()       // "application/yaml"
//	f.Extensions() // [".yaml" ".yml"]
//
// # Related Packages
//
//   - github.com/signadot/tony-format/treedoc/handler - per format parse/serialize
package format
