package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/medifly/internal/core/domain"
)

type gqlUserKey struct{}

// gqlUser returns the authenticated caller of a GraphQL request, if any.
func gqlUser(ctx context.Context) (string, error) {
	uid, _ := ctx.Value(gqlUserKey{}).(string)
	if uid == "" {
		return "", errors.New("authentication required")
	}
	return uid, nil
}

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	pharmacyType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Pharmacy",
		Fields: graphql.Fields{
			"id":         &graphql.Field{Type: graphql.String},
			"name":       &graphql.Field{Type: graphql.String},
			"address":    &graphql.Field{Type: graphql.String},
			"city":       &graphql.Field{Type: graphql.String},
			"state":      &graphql.Field{Type: graphql.String},
			"zip_code":   &graphql.Field{Type: graphql.String},
			"phone":      &graphql.Field{Type: graphql.String},
			"location":   &graphql.Field{Type: geoPointType},
			"active":     &graphql.Field{Type: graphql.Boolean},
			"rating":     &graphql.Field{Type: graphql.Float},
			"open_hours": &graphql.Field{Type: graphql.String},
		},
	})

	rankedType := graphql.NewObject(graphql.ObjectConfig{
		Name: "RankedPharmacy",
		Fields: graphql.Fields{
			"pharmacy":    &graphql.Field{Type: pharmacyType},
			"distance_km": &graphql.Field{Type: graphql.Float},
			"score":       &graphql.Field{Type: graphql.Float},
		},
	})

	medicineType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Medicine",
		Fields: graphql.Fields{
			"id":                    &graphql.Field{Type: graphql.String},
			"name":                  &graphql.Field{Type: graphql.String},
			"description":           &graphql.Field{Type: graphql.String},
			"category":              &graphql.Field{Type: graphql.String},
			"price":                 &graphql.Field{Type: graphql.Float},
			"image_url":             &graphql.Field{Type: graphql.String},
			"in_stock":              &graphql.Field{Type: graphql.Boolean},
			"requires_prescription": &graphql.Field{Type: graphql.Boolean},
			"manufacturer":          &graphql.Field{Type: graphql.String},
			"dosage":                &graphql.Field{Type: graphql.String},
		},
	})

	orderItemType := graphql.NewObject(graphql.ObjectConfig{
		Name: "OrderItem",
		Fields: graphql.Fields{
			"medicine_id":   &graphql.Field{Type: graphql.String},
			"medicine_name": &graphql.Field{Type: graphql.String},
			"quantity":      &graphql.Field{Type: graphql.Int},
			"price":         &graphql.Field{Type: graphql.Float},
		},
	})

	droneType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Drone",
		Fields: graphql.Fields{
			"location":   &graphql.Field{Type: geoPointType},
			"altitude":   &graphql.Field{Type: graphql.Float},
			"speed":      &graphql.Field{Type: graphql.Float},
			"updated_at": &graphql.Field{Type: graphql.DateTime},
		},
	})

	orderType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Order",
		Fields: graphql.Fields{
			"id":                    &graphql.Field{Type: graphql.String},
			"items":                 &graphql.Field{Type: graphql.NewList(orderItemType)},
			"total_amount":          &graphql.Field{Type: graphql.Float},
			"status":                &graphql.Field{Type: graphql.String},
			"delivery_type":         &graphql.Field{Type: graphql.String},
			"pharmacy_id":           &graphql.Field{Type: graphql.String},
			"drone":                 &graphql.Field{Type: droneType},
			"payment_status":        &graphql.Field{Type: graphql.String},
			"estimated_delivery_at": &graphql.Field{Type: graphql.DateTime},
			"delivered_at":          &graphql.Field{Type: graphql.DateTime},
			"created_at":            &graphql.Field{Type: graphql.DateTime},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"pharmaciesNearby": &graphql.Field{
				Type:        graphql.NewList(rankedType),
				Description: "Rank active pharmacies around a point, optionally by text relevance",
				Args: graphql.FieldConfigArgument{
					"lat":      &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon":      &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"radiusKm": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: defaultRadiusKm},
					"query":    &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Pharmacies.Nearby(p.Context, domain.SearchQuery{
						Text:     p.Args["query"].(string),
						Origin:   domain.GeoPoint{Lat: p.Args["lat"].(float64), Lon: p.Args["lon"].(float64)},
						RadiusKm: p.Args["radiusKm"].(float64),
					})
				},
			},
			"pharmacy": &graphql.Field{
				Type:        pharmacyType,
				Description: "Get a pharmacy by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Pharmacies.GetByID(p.Context, p.Args["id"].(string))
				},
			},
			"medicines": &graphql.Field{
				Type:        graphql.NewList(medicineType),
				Description: "Browse or search the medicine catalogue",
				Args: graphql.FieldConfigArgument{
					"category": &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
					"query":    &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Medicines.List(p.Context, p.Args["category"].(string), p.Args["query"].(string))
				},
			},
			"medicine": &graphql.Field{
				Type:        medicineType,
				Description: "Get a medicine by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Medicines.GetByID(p.Context, p.Args["id"].(string))
				},
			},
			"medicineCategories": &graphql.Field{
				Type:        graphql.NewList(graphql.String),
				Description: "Distinct medicine categories",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Medicines.Categories(p.Context)
				},
			},
			"orders": &graphql.Field{
				Type:        graphql.NewList(orderType),
				Description: "The caller's orders, newest first",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					uid, err := gqlUser(p.Context)
					if err != nil {
						return nil, err
					}
					return deps.Orders.List(p.Context, uid)
				},
			},
			"order": &graphql.Field{
				Type:        orderType,
				Description: "One of the caller's orders",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					uid, err := gqlUser(p.Context)
					if err != nil {
						return nil, err
					}
					return deps.Orders.Get(p.Context, uid, p.Args["id"].(string))
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		ctx := c.UserContext()
		if uid := c.Get(HeaderUserID); uid != "" {
			ctx = context.WithValue(ctx, gqlUserKey{}, uid)
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        ctx,
		})

		return c.JSON(result)
	}
}
