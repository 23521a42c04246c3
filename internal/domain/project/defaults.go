package project

const defaultIndex = `// Welcome to your project
function greet(name) {
  return "Hello, " + name + "!";
}

console.log(greet("World"));
`

const defaultReadme = `# My Project

This is a sample project. Files and folders can be created from the explorer,
and every change is saved automatically.
`

// NewDefaultProject builds the starter tree used when no saved project
// exists: a collapsed "src" folder holding "index.js", and a root README.
func NewDefaultProject() *Tree {
	t := NewTree()
	src, _ := t.CreateFolder(t.root.id, "src")
	_, _ = t.CreateFile(src.id, "index.js", defaultIndex)
	_, _ = t.CreateFile(t.root.id, "README.md", defaultReadme)
	return t
}
