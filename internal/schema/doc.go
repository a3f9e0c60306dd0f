// Package schema is the node type registry and the serialized document
// format.
//
// Every node type registers a Behavior: a constructor, an importer, an
// exporter and the current record version. A serialized node is a flat JSON
// object:
//
//	{"type":"paragraph","version":1,"align":"center","children":[...]}
//
// Element records always carry "children"; leaf records never do. Records
// written by an older version are upgraded through the type's Migrations
// before import. Records of an unknown type, a newer version, or an older
// version without a migration path fail with an *UnknownSchemaError; the
// importer never guesses.
//
// A document is the envelope {"root": <record>, "lastKey": "<key>"}.
package schema
