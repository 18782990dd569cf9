// Package errors provides the structured error type used across the compendium.
//
// Every error carries a Code, a message, optional metadata, and the wrapped
// cause. Layers use it as follows:
//
// Parsers return RequiredFieldMissing when an element has no name. Field
// extraction misses are never errors.
//
//	if name == "" {
//	    return nil, errors.RequiredFieldMissing("name")
//	}
//
// Repositories return NotFound on a missing natural key, Internal for storage
// failures, and Aborted when an optimistic transaction kept conflicting.
//
//	if err == redis.Nil {
//	    return nil, errors.NotFoundf("spell %q not found", name)
//	}
//	return nil, errors.Wrapf(err, "failed to load spell %q", name)
//
// Importers and orchestrators validate their Config with a ValidationBuilder
// and wrap repository errors with context. Wrap keeps the code of an existing
// *Error, so callers can still branch on it:
//
//	if errors.IsRequiredFieldMissing(err) {
//	    // reject the element, keep going with the batch
//	}
//
// The CLI maps the final code to a process exit status with Code.ExitCode.
package errors
