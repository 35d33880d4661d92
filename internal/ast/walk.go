package ast

// Inspect traverses the tree rooted at n in depth-first pre-order. If f
// returns false the children of that node are skipped. Nil children are
// never visited. The parts of a CompoundIdentifier are not visited; the
// compound is a single reference.
func Inspect(n Node, f func(Node) bool) {
	if isNil(n) || !f(n) {
		return
	}
	for _, c := range children(n) {
		Inspect(c, f)
	}
}

// InspectPost visits children before their parent. Function binding uses
// it so argument types are known when a call is bound.
func InspectPost(n Node, f func(Node)) {
	if isNil(n) {
		return
	}
	for _, c := range children(n) {
		InspectPost(c, f)
	}
	f(n)
}

func children(n Node) []Node {
	var out []Node
	add := func(nodes ...Node) {
		for _, c := range nodes {
			if !isNil(c) {
				out = append(out, c)
			}
		}
	}

	switch n := n.(type) {
	case *File:
		for _, s := range n.Statements {
			add(s)
		}
	case *LoadStatement:
		add(n.Name, n.Filename)
	case *SaveStatement:
		add(n.Name, n.Filename)
	case *OpenStatement:
		add(n.Name, n.Connector, n.Dictionary, n.Credentials)
	case *AnalyzeStatement:
		add(n.Conn, n.Dictionary)
		for _, c := range n.Include {
			add(c)
		}
		for _, c := range n.Exclude {
			add(c)
		}
	case *VarDeclaration:
		add(n.Name, n.Stream)
	case *ScriptVarDeclaration:
		add(n.Name, n.TypeRef, n.Default)
	case *MapStatement:
		add(n.Source, n.Target)
		for _, f := range n.Fields {
			add(f)
		}
	case *MapField:
		add(n.Source, n.Target)
	case *SyncStatement:
		add(n.Input, n.Output)
	case *SqlTransformStatement:
		for _, c := range n.Columns {
			add(c)
		}
		add(n.From)
		for _, j := range n.Joins {
			add(j)
		}
		add(n.Where, n.Into)
	case *SelectColumn:
		add(n.Expr, n.Alias)
	case *TableRef:
		add(n.Name, n.Alias)
	case *Join:
		add(n.Table, n.On)
	case *FunctionCallExpression:
		for _, a := range n.Args {
			add(a)
		}
	case *CredentialExpression:
		add(n.Value)
	case *BinaryExpression:
		add(n.Left, n.Right)
	case *UnaryExpression:
		add(n.Operand)
	}
	return out
}

// isNil catches typed nil pointers stored in interfaces, which optional
// fields such as OpenStatement.Dictionary produce.
func isNil(n Node) bool {
	if n == nil {
		return true
	}
	switch v := n.(type) {
	case *Identifier:
		return v == nil
	case *StringLiteral:
		return v == nil
	case *CompoundIdentifier:
		return v == nil
	case *TableRef:
		return v == nil
	case *TypeReference:
		return v == nil
	case *ScriptVarReference:
		return v == nil
	}
	return false
}
