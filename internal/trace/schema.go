package trace

// FrameSchema is the JSON schema of a trace frame line.
const FrameSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "title": "expedition trace frame",
  "type": "object",
  "required": ["type", "tick", "clock", "agents", "events", "seen"],
  "properties": {
    "type": {"const": "frame"},
    "tick": {"type": "integer", "minimum": 1},
    "clock": {"type": "number", "minimum": 0},
    "target": {"type": "integer", "minimum": 0},
    "seen": {"type": "integer", "minimum": 0},
    "agents": {
      "type": "array",
      "minItems": 2,
      "items": {
        "type": "object",
        "required": ["id", "kind", "role", "x", "y", "heading"],
        "properties": {
          "id": {"type": "integer", "minimum": 0},
          "kind": {"enum": ["explorer", "miner"]},
          "role": {"enum": ["idle", "active", "returning"]},
          "x": {"type": "number"},
          "y": {"type": "number"},
          "heading": {"type": "number"}
        }
      }
    },
    "events": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["tick", "kind", "position", "description"],
        "properties": {
          "tick": {"type": "integer"},
          "kind": {"enum": ["spawn", "discovery", "dispatch", "collecting", "consumed", "removed", "recall", "dock", "abandon"]},
          "agent_id": {"type": "integer", "minimum": 0},
          "resource_id": {"type": "integer", "minimum": 0},
          "position": {
            "type": "array",
            "items": {"type": "number"},
            "minItems": 2,
            "maxItems": 2
          },
          "description": {"type": "string"}
        }
      }
    }
  }
}`
