package validators

import "go.mongodb.org/mongo-driver/bson"

var TrainerValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"name",
			"status",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"shift_type": bson.M{
				"bsonType": "string",
				"enum": []string{
					"morning",
					"afternoon",
					"night",
				},
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"active",
					"inactive",
				},
			},

			"work_start": bson.M{
				"bsonType": "string",
			},

			"work_end": bson.M{
				"bsonType": "string",
			},

			"break_start": bson.M{
				"bsonType": "string",
			},

			"break_end": bson.M{
				"bsonType": "string",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
