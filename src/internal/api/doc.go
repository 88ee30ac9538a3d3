// Package api provides the REST API for editing a homeproxy configuration
// store through the validation engine.
//
// Every write goes through the engine first and is committed only when
// accepted; validate+commit runs under one lock. Pending sibling values of
// an update are validated with the field and written in the same commit.
// Reads never lock.
//
// # Endpoints
//
//	GET    /api/v1/{collection}                          records in store order
//	POST   /api/v1/validate                              verdict, no commit
//	PUT    /api/v1/{collection}/{id}/{field}             validate and commit ("-" creates)
//	DELETE /api/v1/{collection}/{id}                     dangling references, then delete
//	GET    /api/v1/{collection}/{id}/{field}/candidates  legal values of a field
//	GET    /api/v1/check                                 whole-store audit
//	GET    /api/v1/interfaces                            system and bound interfaces
//	GET    /api/v1/health                                health checks
//	GET    /metrics                                      Prometheus metrics
//
// # Response Format
//
// All successful responses wrap data in a "data" field:
//
//	{
//	  "data": { /* response payload */ }
//	}
//
// Error responses use the following format:
//
//	{
//	  "error": {
//	    "code": "validation_failed",
//	    "message": "Recursive outbound detected!",
//	    "details": {"code": "RECURSIVE_OUTBOUND", "field": "outbound", "value": "hk-out"}
//	  }
//	}
package api
