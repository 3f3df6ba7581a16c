// Package store provides an in-memory record store for a product hierarchy
// with relationship-aware deletes and subtree cloning.
//
// The hierarchy is style → color variant → bill-of-material item → spec line.
// Styles, variants and bom_items are named collections of [Record] values;
// spec lines are embedded in their bom_item under "specDetails".
//
// # Key Features
//
//   - Generic CRUD over named, insertion-ordered collections
//   - Identities from one shared allocator, never reused
//   - eq/contains filters with an explicit coercion rule ([LooseEqual])
//   - Cascading delete for registered parent-child relationships
//   - Deep cloning of a variant with its bom_items and spec lines
//   - Change publication to a [ChangeSink]
//
// # Records
//
// A [Record] uses the DynamoDB item shape. Typed models ([Style], [Variant],
// [BOMItem], [SpecLine]) convert with [Encode] and [Decode]:
//
//	rec, err := store.Encode(store.Variant{StyleID: 1, ColorName: "黑色"})
//	created, err := s.Create(ctx, store.Variants, rec)
//
// Records passed in are copied and records returned are copies; nothing the
// caller holds aliases store state.
//
// # Cascades
//
// [DefaultRegistry] declares styles→variants (style_id) and
// variants→bom_items (variant_id). [Store.Delete] removes the direct children
// of the deleted record and stops there, so deleting a style leaves the
// bom_items of its variants behind. [Store.DeleteMany] never cascades.
//
// # Configuration
//
// Use [DefaultConfig] for an in-process store. [SimulatedLatency] delays each
// operation class to mimic a remote backend:
//
//	cfg := store.DefaultConfig()
//	cfg.Latency = store.SimulatedLatency()
//
// # Errors
//
// The package defines domain-specific errors:
//
//   - [ErrNotFound] - record doesn't exist ([NotFoundError])
//   - [ErrValidation] - required parameter missing ([ValidationError])
//   - [ErrUnimplemented] - custom request matched nothing ([UnimplementedError])
//   - [ErrAlreadyExists] - duplicate id on insert
//   - [ErrParentNotFound] - parent validation failed
package store
