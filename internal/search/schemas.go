// README: Static JSON Schemas for every model call site. Per spec §4.8 /
// design note in §9, these are hand-written literals — never derived from
// the Go structs at runtime — and are passed to internal/ai.Adapter.CompleteJSON
// as the source of truth; the typed struct only validates as defense in depth.
package search

const gateSchemaVersion = "gate.v1"

const gateSchema = `{
  "type": "object",
  "required": ["foodSignal", "confidence", "hasFood", "hasLocation", "hasModifiers", "language"],
  "properties": {
    "foodSignal": {"type": "string", "enum": ["NO", "UNCERTAIN", "YES"]},
    "confidence": {"type": "number", "minimum": 0, "maximum": 1},
    "hasFood": {"type": "boolean"},
    "hasLocation": {"type": "boolean"},
    "hasModifiers": {"type": "boolean"},
    "language": {"type": "string"}
  },
  "additionalProperties": false
}`

const routeSchemaVersion = "route.v1"

const routeSchema = `{
  "type": "object",
  "required": ["route", "confidence"],
  "properties": {
    "route": {"type": "string", "enum": ["NEARBY", "TEXTSEARCH", "LANDMARK"]},
    "languageHint": {"type": "string"},
    "regionHint": {"type": "string"},
    "confidence": {"type": "number", "minimum": 0, "maximum": 1},
    "textQuery": {"type": "string"},
    "keyword": {"type": "string"},
    "geocodeQuery": {"type": "string"},
    "biasRadiusMeters": {"type": "number"}
  },
  "additionalProperties": false
}`

const baseFilterSchemaVersion = "base-filters.v1"

const baseFilterSchema = `{
  "type": "object",
  "properties": {
    "language": {"type": "string"},
    "openState": {"type": "string", "enum": ["", "OPEN_NOW", "OPEN_AT", "OPEN_BETWEEN"]},
    "openAt": {
      "type": "object",
      "properties": {
        "day": {"type": "integer", "minimum": 0, "maximum": 6},
        "time": {"type": "string"},
        "timezone": {"type": "string"}
      }
    },
    "openBetween": {
      "type": "object",
      "properties": {
        "day": {"type": "integer", "minimum": 0, "maximum": 6},
        "start": {"type": "string"},
        "end": {"type": "string"},
        "timezone": {"type": "string"}
      }
    },
    "regionHint": {"type": "string"}
  },
  "additionalProperties": false
}`

const postConstraintSchemaVersion = "post-constraints.v1"

const postConstraintSchema = `{
  "type": "object",
  "properties": {
    "openState": {"type": "string", "enum": ["", "OPEN_NOW", "OPEN_AT", "OPEN_BETWEEN"]},
    "openAt": {"type": "object"},
    "openBetween": {"type": "object"},
    "priceLevel": {"type": "integer", "minimum": 1, "maximum": 4},
    "isKosher": {"type": "boolean"},
    "requirements": {
      "type": "object",
      "properties": {
        "accessible": {"type": "boolean"},
        "parking": {"type": "boolean"}
      }
    }
  },
  "additionalProperties": false
}`
