package sqlinline

const QSelectUploadsByIDs = `--sql 7691514d-9a49-4869-9f0a-ee08ae6528cd
select id, project_id, owner_id, filename, storage_key, upload_status, created_at
from file_uploads
where id = any($1::uuid[]);
`

const QInsertUpload = `--sql 0c4c8f5a-3d71-4b89-9a75-6f4f0db2ce91
insert into file_uploads(id, project_id, owner_id, filename, storage_key, upload_status, created_at)
values ($1::uuid, $2::uuid, $3::uuid, $4::text, $5::text, $6::text, now());
`
