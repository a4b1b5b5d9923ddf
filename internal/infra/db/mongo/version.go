package mongo

import "go.mongodb.org/mongo-driver/bson"

// versionFilter matches id at the expected version. Documents written by other
// services carry no version field; they count as version 0.
func versionFilter(id string, version int64) bson.M {
	if version == 0 {
		return bson.M{
			"_id": id,
			"$or": bson.A{
				bson.M{"version": int64(0)},
				bson.M{"version": bson.M{"$exists": false}},
			},
		}
	}
	return bson.M{"_id": id, "version": version}
}
