package sqlite

import (
	"fmt"
	"strings"

	"github.com/louisbranch/storefront/internal/services/storefront/storage"
	"go.einride.tech/aip/filtering"
	expr "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

// sqlCondition is a WHERE clause fragment with positional parameters.
type sqlCondition struct {
	Clause string
	Params []any
}

// productColumns maps filter identifiers to product columns.
var productColumns = map[string]string{
	"name":        "p.name",
	"category_id": "p.category_id",
	"price_cents": "p.price_cents",
	"stock":       "p.stock",
	"rating":      "p.rating",
}

func productDeclarations() (*filtering.Declarations, error) {
	return filtering.NewDeclarations(
		filtering.DeclareStandardFunctions(),
		filtering.DeclareIdent("name", filtering.TypeString),
		filtering.DeclareIdent("category_id", filtering.TypeString),
		filtering.DeclareIdent("price_cents", filtering.TypeInt),
		filtering.DeclareIdent("stock", filtering.TypeInt),
		filtering.DeclareIdent("rating", filtering.TypeFloat),
	)
}

// parseProductFilter translates an AIP-160 expression into SQL. Failures wrap
// storage.ErrInvalidFilter.
func parseProductFilter(raw string) (sqlCondition, error) {
	if strings.TrimSpace(raw) == "" {
		return sqlCondition{}, nil
	}
	decls, err := productDeclarations()
	if err != nil {
		return sqlCondition{}, fmt.Errorf("create declarations: %w", err)
	}
	parsed, err := filtering.ParseFilterString(raw, decls)
	if err != nil {
		return sqlCondition{}, fmt.Errorf("%w: %v", storage.ErrInvalidFilter, err)
	}
	cond, err := translateExpr(parsed.CheckedExpr.GetExpr())
	if err != nil {
		return sqlCondition{}, fmt.Errorf("%w: %v", storage.ErrInvalidFilter, err)
	}
	return cond, nil
}

func translateExpr(e *expr.Expr) (sqlCondition, error) {
	if e == nil {
		return sqlCondition{}, nil
	}
	call, ok := e.GetExprKind().(*expr.Expr_CallExpr)
	if !ok {
		return sqlCondition{}, fmt.Errorf("unsupported expression type: %T", e.GetExprKind())
	}
	args := call.CallExpr.GetArgs()
	switch call.CallExpr.GetFunction() {
	case filtering.FunctionAnd:
		return translateJunction(args, "AND")
	case filtering.FunctionOr:
		return translateJunction(args, "OR")
	case filtering.FunctionNot:
		if len(args) != 1 {
			return sqlCondition{}, fmt.Errorf("NOT requires 1 argument")
		}
		inner, err := translateExpr(args[0])
		if err != nil {
			return sqlCondition{}, err
		}
		return sqlCondition{Clause: "NOT (" + inner.Clause + ")", Params: inner.Params}, nil
	case filtering.FunctionEquals:
		return translateComparison(args, "=")
	case filtering.FunctionNotEquals:
		return translateComparison(args, "!=")
	case filtering.FunctionLessThan:
		return translateComparison(args, "<")
	case filtering.FunctionLessEquals:
		return translateComparison(args, "<=")
	case filtering.FunctionGreaterThan:
		return translateComparison(args, ">")
	case filtering.FunctionGreaterEquals:
		return translateComparison(args, ">=")
	default:
		return sqlCondition{}, fmt.Errorf("unsupported function: %s", call.CallExpr.GetFunction())
	}
}

func translateJunction(args []*expr.Expr, op string) (sqlCondition, error) {
	if len(args) < 2 {
		return sqlCondition{}, fmt.Errorf("%s requires at least 2 arguments", op)
	}
	clauses := make([]string, 0, len(args))
	var params []any
	for _, arg := range args {
		cond, err := translateExpr(arg)
		if err != nil {
			return sqlCondition{}, err
		}
		clauses = append(clauses, cond.Clause)
		params = append(params, cond.Params...)
	}
	return sqlCondition{
		Clause: "(" + strings.Join(clauses, " "+op+" ") + ")",
		Params: params,
	}, nil
}

func translateComparison(args []*expr.Expr, op string) (sqlCondition, error) {
	if len(args) != 2 {
		return sqlCondition{}, fmt.Errorf("comparison requires 2 arguments")
	}
	ident, ok := args[0].GetExprKind().(*expr.Expr_IdentExpr)
	if !ok {
		return sqlCondition{}, fmt.Errorf("expected identifier, got %T", args[0].GetExprKind())
	}
	column, ok := productColumns[ident.IdentExpr.GetName()]
	if !ok {
		return sqlCondition{}, fmt.Errorf("unknown field: %s", ident.IdentExpr.GetName())
	}
	value, err := constValue(args[1])
	if err != nil {
		return sqlCondition{}, err
	}
	return sqlCondition{
		Clause: fmt.Sprintf("%s %s ?", column, op),
		Params: []any{value},
	}, nil
}

func constValue(e *expr.Expr) (any, error) {
	constant, ok := e.GetExprKind().(*expr.Expr_ConstExpr)
	if !ok {
		return nil, fmt.Errorf("expected constant, got %T", e.GetExprKind())
	}
	switch kind := constant.ConstExpr.GetConstantKind().(type) {
	case *expr.Constant_StringValue:
		return kind.StringValue, nil
	case *expr.Constant_Int64Value:
		return kind.Int64Value, nil
	case *expr.Constant_DoubleValue:
		return kind.DoubleValue, nil
	case *expr.Constant_BoolValue:
		return kind.BoolValue, nil
	default:
		return nil, fmt.Errorf("unsupported constant type: %T", kind)
	}
}
