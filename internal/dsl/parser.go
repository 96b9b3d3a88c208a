package dsl

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"oblik/internal/entity"
)

var (
	entityRe = regexp.MustCompile(`^entity\s+(\w+):`)
	fieldRe  = regexp.MustCompile(`^\s*([\w_]+):\s*([^\s#]+)(.*)$`)
	refRe    = regexp.MustCompile(`^ref\[([A-Za-z0-9_.]+)\]$`)
	arrayRe  = regexp.MustCompile(`^array\[(.+)\]$`)
	moduleRe = regexp.MustCompile(`^\s*module\s+([A-Za-z0-9_.-]+)\s*$`)
)

// splitOptionTokens делит хвост опций "required verbose='Имя книги'" на
// токены, не разрывая по пробелам внутри кавычек и скобок.
func splitOptionTokens(s string) []string {
	var out []string
	var buf []rune
	inSingle, inDouble := false, false
	bracketDepth := 0

	flush := func() {
		if len(buf) > 0 {
			out = append(out, string(buf))
			buf = buf[:0]
		}
	}

	for _, r := range s {
		switch r {
		case '\'':
			if !inDouble && bracketDepth == 0 {
				inSingle = !inSingle
			}
			buf = append(buf, r)
		case '"':
			if !inSingle && bracketDepth == 0 {
				inDouble = !inDouble
			}
			buf = append(buf, r)
		case '[':
			if !inSingle && !inDouble {
				bracketDepth++
			}
			buf = append(buf, r)
		case ']':
			if !inSingle && !inDouble && bracketDepth > 0 {
				bracketDepth--
			}
			buf = append(buf, r)
		default:
			if (r == ' ' || r == '\t') && !inSingle && !inDouble && bracketDepth == 0 {
				flush()
				continue
			}
			buf = append(buf, r)
		}
	}
	flush()
	return out
}

// LoadSchemas читает один .dsl-файл и возвращает объявленные в нём схемы.
// Порядок объявления полей фиксируется счётчиком схемы по ходу чтения.
func LoadSchemas(path string) ([]*entity.Schema, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var schemas []*entity.Schema
	var current *entity.Schema
	currentModule := ""

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// module ...
		if m := moduleRe.FindStringSubmatch(line); m != nil {
			currentModule = m[1]
			continue
		}

		// entity <Name>:
		if m := entityRe.FindStringSubmatch(line); m != nil {
			if current != nil {
				schemas = append(schemas, current)
			}
			current = entity.NewSchema(currentModule, m[1])
			continue
		}
		if current == nil {
			// игнорируем всё вне сущности
			continue
		}

		// Поля
		if m := fieldRe.FindStringSubmatch(line); m != nil {
			fd, err := parseField(m[1], m[2], m[3])
			if err != nil {
				return nil, fmt.Errorf("%s: entity %s: %w", path, current.Name, err)
			}
			if err := current.AddField(fd); err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			continue
		}
	}

	if current != nil {
		schemas = append(schemas, current)
	}
	return schemas, scanner.Err()
}

// parseField разбирает "name: type опции..." в дескриптор поля.
// ref[X] — to-one ссылка, array[ref[X]] — to-many, всё остальное —
// простое поле с типом как есть.
func parseField(name, rawType, tail string) (*entity.FieldDescriptor, error) {
	// склейка оборванного array[...] (пробел внутри скобок)
	if strings.HasPrefix(rawType, "array[") && !strings.Contains(rawType, "]") {
		if idx := strings.Index(tail, "]"); idx >= 0 {
			rawType = rawType + tail[:idx+1]
			tail = tail[idx+1:]
		}
	}

	fd := &entity.FieldDescriptor{
		Name: name,
		Kind: entity.Plain,
		Type: strings.ToLower(rawType),
	}

	if mm := refRe.FindStringSubmatch(rawType); mm != nil {
		fd.Kind = entity.ToOne
		fd.Type = "ref"
		fd.RefTarget = strings.TrimSpace(mm[1])
	} else if mm := arrayRe.FindStringSubmatch(rawType); mm != nil {
		elem := strings.TrimSpace(mm[1])
		if rm := refRe.FindStringSubmatch(elem); rm != nil {
			fd.Kind = entity.ToMany
			fd.Type = "array[ref]"
			fd.RefTarget = strings.TrimSpace(rm[1])
		} else {
			fd.Type = "array[" + strings.ToLower(elem) + "]"
		}
	}

	// --- опции после типа ---
	optsRaw := strings.TrimSpace(tail)
	if i := strings.IndexByte(optsRaw, '#'); i >= 0 {
		optsRaw = strings.TrimSpace(optsRaw[:i])
	}
	optsRaw = strings.ReplaceAll(optsRaw, ",", " ")

	for _, tok := range splitOptionTokens(optsRaw) {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		// флаг без значения
		if !strings.Contains(tok, "=") {
			if strings.EqualFold(tok, "required") {
				fd.Required = true
				continue
			}
			return nil, fmt.Errorf("field %q: unknown option %q", name, tok)
		}
		kv := strings.SplitN(tok, "=", 2)
		k := strings.ToLower(strings.TrimSpace(kv[0]))
		v := strings.TrimSpace(kv[1])
		// снять кавычки, если есть
		if len(v) >= 2 {
			if (v[0] == '"' && v[len(v)-1] == '"') || (v[0] == '\'' && v[len(v)-1] == '\'') {
				v = v[1 : len(v)-1]
			}
		}
		switch k {
		case "verbose":
			fd.Verbose = v
		case "required":
			fd.Required = strings.EqualFold(v, "true")
		default:
			return nil, fmt.Errorf("field %q: unknown option %q", name, k)
		}
	}

	return fd, nil
}

// LoadAll обходит директорию с *.dsl и возвращает схемы по FQN.
func LoadAll(root string) (map[string]*entity.Schema, error) {
	result := make(map[string]*entity.Schema)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(d.Name()), ".dsl") {
			return nil
		}

		schemas, err := LoadSchemas(path)
		if err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}

		for _, s := range schemas {
			if s == nil || s.Name == "" {
				return fmt.Errorf("empty entity name in %s", path)
			}
			if s.Module == "" {
				return fmt.Errorf("entity %q in %s has no module — add `module <name>` at the top", s.Name, path)
			}
			fqn := s.FQN()
			if _, exists := result[fqn]; exists {
				return fmt.Errorf("duplicate entity %q in module %q (file: %s)", s.Name, s.Module, path)
			}
			result[fqn] = s
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
