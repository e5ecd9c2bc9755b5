// internal/adapter/storage/mongo_query.go

package storage

import (
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"safetails/internal/domain/proximity"
	"safetails/internal/domain/record"
)

const rankFieldPrefix = "_rank_"

// mongoFilter builds the match document shared by the data and count queries
func mongoFilter(circle *proximity.Circle, conditions []proximity.Condition) bson.D {
	clauses := make([]bson.D, 0, len(conditions)+1)

	if circle != nil {
		clauses = append(clauses, bson.D{{Key: record.FieldLocation, Value: bson.D{
			{Key: "$geoWithin", Value: bson.D{
				{Key: "$centerSphere", Value: bson.A{
					bson.A{circle.Center.Longitude, circle.Center.Latitude},
					circle.Radians(),
				}},
			}},
		}}})
	}

	for _, c := range conditions {
		clauses = append(clauses, mongoCondition(c))
	}

	switch len(clauses) {
	case 0:
		return bson.D{}
	case 1:
		return clauses[0]
	}

	and := make(bson.A, len(clauses))
	for i, c := range clauses {
		and[i] = c
	}
	return bson.D{{Key: "$and", Value: and}}
}

func mongoCondition(c proximity.Condition) bson.D {
	switch c.Op {
	case proximity.OpIn, proximity.OpAnyOf:
		return bson.D{{Key: c.Field, Value: bson.D{{Key: "$in", Value: c.Values}}}}
	case proximity.OpContainsFold:
		text, _ := c.Value.(string)
		return bson.D{{Key: c.Field, Value: primitive.Regex{Pattern: regexp.QuoteMeta(text), Options: "i"}}}
	}
	return bson.D{{Key: c.Field, Value: c.Value}}
}

// mongoSort translates sort keys into a $sort document. Rank keys sort on a
// computed field that mongoRankFields adds before the sort stage.
func mongoSort(keys []proximity.SortKey) bson.D {
	sort := make(bson.D, 0, len(keys))
	for _, k := range keys {
		field := k.Field
		if k.Type == proximity.SortRank {
			field = rankFieldPrefix + k.Field
		}
		dir := 1
		if k.Desc {
			dir = -1
		}
		sort = append(sort, bson.E{Key: field, Value: dir})
	}
	return sort
}

// mongoRankFields returns the $addFields document mapping ranked values to
// their ordinal, and the names of the computed fields
func mongoRankFields(keys []proximity.SortKey) (bson.D, []string) {
	var (
		fields bson.D
		names  []string
	)

	for _, k := range keys {
		if k.Type != proximity.SortRank {
			continue
		}

		branches := make(bson.A, 0, len(k.Rank))
		for i, v := range k.Rank {
			branches = append(branches, bson.D{
				{Key: "case", Value: bson.D{{Key: "$eq", Value: bson.A{"$" + k.Field, v}}}},
				{Key: "then", Value: i + 1},
			})
		}

		name := rankFieldPrefix + k.Field
		fields = append(fields, bson.E{Key: name, Value: bson.D{
			{Key: "$switch", Value: bson.D{
				{Key: "branches", Value: branches},
				{Key: "default", Value: 0},
			}},
		}})
		names = append(names, name)
	}

	return fields, names
}

// mongoPipeline builds the aggregation returning one ordered page
func mongoPipeline(filter bson.D, criteria proximity.Criteria) mongo.Pipeline {
	pipeline := mongo.Pipeline{{{Key: "$match", Value: filter}}}

	rankFields, rankNames := mongoRankFields(criteria.Sort)
	if len(rankFields) > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$addFields", Value: rankFields}})
	}
	if len(criteria.Sort) > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$sort", Value: mongoSort(criteria.Sort)}})
	}
	if criteria.Skip > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$skip", Value: criteria.Skip}})
	}
	if criteria.Limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: criteria.Limit}})
	}
	if len(rankNames) > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$unset", Value: rankNames}})
	}

	return pipeline
}
