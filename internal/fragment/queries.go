package fragment

// Query strings are adapted from the teacher's
// internal/parser/parser_language_setup.go, trimmed to the capture names
// this engine turns into fragments (function/method/class-family) and
// dropping the teacher's import/export/variable captures, which have no
// role here: import edges are derived independently by the semantic edge
// builder (SPEC_FULL §3.5) by scanning fragment content for declared
// symbol names, not from a dedicated import capture.

const goQuery = `
    (function_declaration name: (identifier) @function.name) @function
    (method_declaration
        receiver: (parameter_list) @method.receiver
        name: (field_identifier) @method.name) @method
    (type_declaration
        (type_spec name: (type_identifier) @class.name
            type: (struct_type))) @class
    (type_declaration
        (type_spec name: (type_identifier) @class.name
            type: (interface_type))) @class
`

const pythonQuery = `
    (class_definition
        body: (block
            (function_definition name: (identifier) @method.name))) @method
    (function_definition name: (identifier) @function.name) @function
    (class_definition name: (identifier) @class.name) @class
`

const jsQuery = `
    (function_declaration name: (identifier) @function.name) @function
    (generator_function_declaration name: (identifier) @function.name) @function
    (variable_declarator
        name: (identifier) @function.name
        value: [(arrow_function) (function_expression) (generator_function)]) @function
    (method_definition name: (property_identifier) @method.name) @method
    (class_declaration name: (identifier) @class.name) @class
`

const tsQuery = `
    (function_declaration name: (identifier) @function.name) @function
    (generator_function_declaration name: (identifier) @function.name) @function
    (method_definition name: (property_identifier) @method.name) @method
    (function_expression name: (identifier) @function.name) @function
    (class_declaration name: (type_identifier) @class.name) @class
    (interface_declaration name: (type_identifier) @class.name) @class
    (enum_declaration name: (identifier) @class.name) @class
`

const rustQuery = `
    (impl_item
        body: (declaration_list
            (function_item name: (identifier) @method.name))) @method
    (trait_item
        body: (declaration_list
            (function_item name: (identifier) @method.name))) @method
    (function_item name: (identifier) @function.name) @function
    (struct_item name: (type_identifier) @class.name) @class
    (enum_item name: (type_identifier) @class.name) @class
    (trait_item name: (type_identifier) @class.name) @class
`

const javaQuery = `
    (method_declaration name: (identifier) @method.name) @method
    (constructor_declaration name: (identifier) @constructor.name) @constructor
    (class_declaration name: (identifier) @class.name) @class
    (record_declaration name: (identifier) @class.name) @class
    (interface_declaration name: (identifier) @class.name) @class
    (enum_declaration name: (identifier) @class.name) @class
`

const csharpQuery = `
    (method_declaration name: (identifier) @method.name) @method
    (constructor_declaration name: (identifier) @constructor.name) @constructor
    (class_declaration name: (identifier) @class.name) @class
    (interface_declaration name: (identifier) @class.name) @class
    (struct_declaration name: (identifier) @class.name) @class
    (record_declaration name: (identifier) @class.name) @class
    (enum_declaration name: (identifier) @class.name) @class
`
