package cmd

import (
	"os"

	"github.com/pkg/errors"
	"github.com/pyrite-lang/pyrite/infer"
	"github.com/pyrite-lang/pyrite/parser"
	"github.com/pyrite-lang/pyrite/types"
	"gopkg.in/yaml.v3"
)

// envFile is the YAML shape of a narrowing environment: variable and class
// declarations that stand in for a checked module's inferred state.
//
//	variables:
//	  x: "int | None"
//	  p.name: "str"
//	classes:
//	  Color:
//	    enum: [RED, GREEN]
//	functions:
//	  is_str:
//	    returns: "TypeIs[str]"
//	modules: [os]
type envFile struct {
	Variables map[string]string      `yaml:"variables"`
	Classes   map[string]envClass    `yaml:"classes"`
	Functions map[string]envFunction `yaml:"functions"`
	Modules   []string               `yaml:"modules"`
}

type envClass struct {
	Bases []string `yaml:"bases"`
	Enum  []string `yaml:"enum"`
}

type envFunction struct {
	Returns string `yaml:"returns"`
}

// loadEnvironment populates env from a YAML environment file.
func loadEnvironment(path string, env *infer.Env) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "reading environment file")
	}
	var file envFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return errors.Wrap(err, "parsing environment file")
	}

	// classes first: variable and function annotations may refer to them,
	// and bases may refer to each other, so declare shells before resolving
	classes := types.BuiltinClasses()
	for name, decl := range file.Classes {
		classes[name] = &types.Class{Name: name, EnumMembers: decl.Enum}
	}
	for name, decl := range file.Classes {
		class := classes[name]
		if len(decl.Bases) == 0 {
			class.Bases = []*types.Class{types.ObjectClass}
			continue
		}
		for _, baseName := range decl.Bases {
			base, known := classes[baseName]
			if !known {
				return errors.Errorf("class %q has unknown base %q", name, baseName)
			}
			class.Bases = append(class.Bases, base)
		}
	}
	for name := range file.Classes {
		env.DefineClass(classes[name])
	}

	for key, annotation := range file.Variables {
		t, err := parser.ParseType(annotation, classes)
		if err != nil {
			return errors.Wrapf(err, "variable %q", key)
		}
		env.Declare(key, t)
	}

	for name, decl := range file.Functions {
		returns, err := parser.ParseType(decl.Returns, classes)
		if err != nil {
			return errors.Wrapf(err, "function %q", name)
		}
		env.DefineFunction(&types.FunctionLiteral{Name: name, Returns: returns})
	}

	for _, name := range file.Modules {
		env.DefineModule(name)
	}
	return nil
}
